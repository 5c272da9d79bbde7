package cli

const usage = `Usage:
  luapack [bundle] [options]
  luapack metadata [options]
  luapack info FILE

Commands:
  bundle    Bundle every entry script in the source dir (default)
  metadata  Write the plugindef catalogue of every entry script
  info      Print the plugindef metadata of one script

Options:
  --source PATH              Source directory (default: src)
  --output PATH              Output directory (default: dist)
  --config PATH              Config file (default: discovered in the working dir)
  --mode table|inline        Library handling (default: table)
  --scanner pattern|syntax   Import scanner (default: pattern)
  --extension EXT            Source file extension without dot (default: lua)
  --ignore NAMES             Comma-separated modules never bundled (repeatable)
  --exclude GLOBS            Comma-separated entry globs to skip (default: personal*)
  --library-namespace NAME   Namespace of inlined libraries (default: library)
  --extension-point MODULE   Module that pulls in the extension dir (default: library.mixin)
  --extension-dir DIR        Extension modules dir under source (default: mixin)
  --strip-comments           Remove comments from bundled output
  --inject-extras            Add RTFNotes and HashURL to plugindef
  --hash-url-base URL        Base URL for HashURL
  --hash-dir PATH            Write <stem>.hash files here
  --metadata-file NAME       Catalogue file name under output (default: metadata.json)
  --check                    Parse bundled output and fail on syntax errors
  --jobs N                   Scripts bundled in parallel (default: 4)
  --format table|json|sarif  Report format (default: table)
  --verbose                  Log per-file progress
  -h, --help                 Show this help text
`

func Usage() string {
	return usage
}
