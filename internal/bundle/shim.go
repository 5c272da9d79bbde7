package bundle

import "strings"

var requireShim = strings.Join([]string{
	`__imports = __imports or {}`,
	`__import_results = __import_results or {}`,
	OriginalRequireAlias + ` = ` + OriginalRequireAlias + ` or require`,
	``,
	`function require(item)`,
	`    if not __imports[item] then`,
	`        if ` + OriginalRequireAlias + ` then`,
	`            return ` + OriginalRequireAlias + `(item)`,
	`        end`,
	`        error("module '" .. item .. "' not found")`,
	`    end`,
	``,
	`    if __import_results[item] == nil then`,
	`        __import_results[item] = __imports[item]()`,
	`        if __import_results[item] == nil then`,
	`            __import_results[item] = true`,
	`        end`,
	`    end`,
	``,
	`    return __import_results[item]`,
	`end`,
}, "\n")

// RequireShim returns the runtime require replacement emitted at the top of
// every bundle that contains at least one wrapped module. Each factory runs at
// most once; names never registered fall through to the host's require.
func RequireShim() string {
	return requireShim
}
