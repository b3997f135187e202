// Package config loads blackbox's TOML configuration.
//
// # Configuration Discovery
//
// Load uses the explicit path when one is given and
// ~/.config/blackbox/config.toml otherwise. A missing file is not an error;
// defaults are used instead. Fields that are present but empty also fall
// back to their defaults.
//
// # Default Values
//
//   - Log file: ~/.local/share/blackbox/blackbox.log
//   - Minimum level: info
//   - Size bound: 204800 bytes
//   - Stacktrace directory: ~/.local/share/blackbox/stacktraces
//   - Auto-kill after a captured panic: true
//
// # TOML Format
//
//	log_file = "~/.local/share/blackbox/blackbox.log"  # "none" disables file logging
//	min_level = "warning"                               # info, warning, error or I/W/E
//	max_bytes = 204800
//	stacktrace_dir = "~/.local/share/blackbox/stacktraces"
//	auto_kill = true
//
//	[report]
//	url = "https://api.github.com/repos/owner/repo/issues"
//	token = "..."          # or username/password for basic auth
//	version = "1.4.0"
//
// Tilde expansion is applied to every path. Load returns an error for
// unreadable files, invalid TOML, an unknown min_level or a max_bytes that is
// negative or outside [1024, 1<<40].
package config
