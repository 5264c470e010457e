package config

const (
	defaultGameDir          = "~/games/mugen"
	defaultDownloadsDir     = "~/Downloads/mugen"
	defaultStateDir         = "~/.local/share/rostersync"
	defaultCharsSubdir      = "chars"
	defaultStagesSubdir     = "stages"
	defaultRosterRelPath    = "data/select.def"
	defaultBackupSubdir     = "backups"
	defaultTempSubdir       = "_temp_extract"
	defaultRosterFormat     = FormatAuto
	defaultRosterOrder      = OrderSorted
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultLogMaxSizeMB     = 10
	defaultLogMaxBackups    = 5
)

var defaultArchiveExtensions = []string{".zip", ".rar", ".7z"}

// Default returns a Config populated with repository defaults. Derived paths
// (chars, stages, roster, backups) stay empty until normalize fills them from
// the game and downloads roots.
func Default() Config {
	return Config{
		Paths: Paths{
			GameDir:      defaultGameDir,
			DownloadsDir: defaultDownloadsDir,
			StateDir:     defaultStateDir,
		},
		Install: Install{
			CleanupArchives:   false,
			ArchiveExtensions: append([]string(nil), defaultArchiveExtensions...),
		},
		Roster: Roster{
			Format: defaultRosterFormat,
			Order:  defaultRosterOrder,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
		},
	}
}
