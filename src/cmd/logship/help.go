// FILE: logship/src/cmd/logship/help.go
package main

const helpText = `logship: ships log lines read from stdin to a remote ingestion service.

Usage:
  <producer> | logship [options]

Options:
  -c, -config <path>       Path to configuration file (default: ~/.config/logship.toml)
  -v, -version             Display version information and exit
  -q, -quiet               Suppress all console output, including errors
      -category <name>     Category attached to every shipped line
      -log-level <level>   Diagnostic log level: debug, info, warn, error
  -h, -help                Display this help message and exit

Configuration Sources (Precedence: CLI > Env > File > Defaults):
  - CLI flags override all other settings
  - LOGSHIP_ prefixed environment variables override file settings
    (e.g. LOGSHIP_ACCOUNT_PRIVATE_KEY, LOGSHIP_TRANSPORT_URL)
  - TOML configuration file is the primary method

Environment Variables:
  LOGSHIP_CONFIG_FILE              Config file path
  LOGSHIP_CONFIG_DIR               Config directory
  LOGSHIP_DISABLE_STATUS_REPORTER  Disable periodic status reports (set to 1)

Examples:
  # Ship an application's output
  ./server 2>&1 | logship -category server

  # Use a custom config with debug diagnostics
  tail -F /var/log/app.log | logship -c /etc/logship.toml -log-level debug
`
