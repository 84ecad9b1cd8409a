package constants

// AppName is used for the binary name, keyring service and config directory.
var AppName = "ctfadmin"

var KeyringServiceName = "ctfadmin"

var Version = "dev"

// FlagPrefix is the namespace tag every flag must carry, as in FRIGIDSEC-DPC{...}.
var FlagPrefix = "FRIGIDSEC-DPC"

// SecretFileName is looked up next to the executable unless overridden.
var SecretFileName = "secret.txt"

// ConfigFileName is the optional YAML config looked up next to the executable.
var ConfigFileName = "ctfadmin.yaml"

const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

var DefaultBackend = BackendMongo

var DefaultDatabase = "ctf"

// DefaultCollection matches the collection name mongoose derives from the "Challenge" model.
var DefaultCollection = "challenges"

var DefaultSQLitePath = "ctfadmin.db"

// LogFilePath defines the default path for the log file when debug is enabled
var LogFilePath = "ctfadmin.log"

var MaxLogLines = 1000 // Maximum number of lines to keep in the log file
