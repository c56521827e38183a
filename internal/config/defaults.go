package config

const (
	defaultLibraryDir               = "~/library/books"
	defaultInboxDir                 = "~/library/inbox"
	defaultLogDir                   = "~/.local/share/shelver/logs"
	defaultDataDir                  = "~/.local/share/shelver"
	defaultAuthorFolder             = "{Author Name}"
	defaultBookFolder               = "{Book Title} ({Release Year})"
	defaultFileName                 = "{Book Title}"
	defaultMultiPartFileName        = "{Book Title} - Part {PartNumber:00}"
	defaultMaxPathLength            = 260
	defaultImportMode               = "move"
	defaultFileDate                 = "none"
	defaultChmodFolder              = "755"
	defaultChmodFile                = "644"
	defaultDebounceSeconds          = 5
	defaultSuppressionWindowSeconds = 30
	defaultNotifyRequestTimeout     = 10
	defaultMetricsBind              = "127.0.0.1:9787"
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

var defaultExtensions = []string{".m4b", ".mp3", ".m4a", ".flac", ".ogg", ".epub", ".pdf", ".mobi", ".azw3"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			InboxDir:   defaultInboxDir,
			LogDir:     defaultLogDir,
			DataDir:    defaultDataDir,
		},
		Naming: Naming{
			AuthorFolder:      defaultAuthorFolder,
			BookFolder:        defaultBookFolder,
			FileName:          defaultFileName,
			MultiPartFileName: defaultMultiPartFileName,
			MaxPathLength:     defaultMaxPathLength,
		},
		MediaManagement: MediaManagement{
			ImportMode:        defaultImportMode,
			FileDate:          defaultFileDate,
			ChmodFolder:       defaultChmodFolder,
			ChmodFile:         defaultChmodFile,
			PruneEmptyFolders: true,
		},
		Watch: Watch{
			DebounceSeconds:          defaultDebounceSeconds,
			SuppressionWindowSeconds: defaultSuppressionWindowSeconds,
			Extensions:               append([]string(nil), defaultExtensions...),
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			FolderCreated:  true,
			ImportFailed:   true,
		},
		Metrics: Metrics{
			Bind: defaultMetricsBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
