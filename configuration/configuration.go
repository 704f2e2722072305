// Package configuration implements the YAML-plus-environment
// configuration surface spec.md §6 describes, ported from the teacher's
// configuration package: a single versioned struct, loaded with
// gopkg.in/yaml.v2 and then selectively overridden by environment
// variables using the double-underscore scheme in parser.go.
package configuration

// Version is the configuration schema version, following the teacher's
// Major.Minor convention even though this registry has only ever shipped one.
type Version string

// CurrentVersion is the only Version this package accepts.
const CurrentVersion = Version("0.1")

// Configuration is the root of the YAML configuration file.
//
// Field names avoid underscores, matching the teacher's convention,
// since underscores are the separator the environment-variable overlay
// scheme in parser.go uses to walk into nested fields.
type Configuration struct {
	Version Version `yaml:"version"`
	Log     Log     `yaml:"log"`
	Server  Server  `yaml:"server"`
	Crates  Crates  `yaml:"crates"`
	Auth    Auth    `yaml:"auth"`
	Storage Storage `yaml:"storage"`
}

// Log configures the logging subsystem (ambient stack, not named by the
// core spec, but carried the way the teacher carries it).
type Log struct {
	Level     string `yaml:"level"`
	Formatter string `yaml:"formatter"`
}

// Server configures the externally visible root URL and the listener
// addresses (spec.md §6 "server.root_url", "server.bind").
type Server struct {
	RootURL string   `yaml:"rooturl"`
	Bind    []string `yaml:"bind"`
}

// Crates configures crate-specific limits (spec.md §6 "crates.max_publish_size").
type Crates struct {
	MaxPublishSize int64 `yaml:"maxpublishsize"`
}

// Auth selects one of the Authorizer modes (spec.md §4.5, §6
// "auth.type"; "tokenlist" is a supplement, see SPEC_FULL.md §3).
type Auth struct {
	Type      string        `yaml:"type"`
	Token     TokenAuth     `yaml:"token"`
	TokenFile TokenFileAuth `yaml:"tokenfile"`
	TokenList TokenListAuth `yaml:"tokenlist"`
}

// TokenAuth configures the static-token Authorizer mode.
type TokenAuth struct {
	TokenHash string `yaml:"tokenhash"`
}

// TokenFileAuth configures the auto-generated token-file Authorizer mode.
type TokenFileAuth struct {
	TokenFile string `yaml:"tokenfile"`
}

// TokenListAuth configures the multi-token Authorizer mode.
type TokenListAuth struct {
	Tokens []string `yaml:"tokens"`
}

// Storage selects the StorageBackend variant (spec.md §4.3, §6
// "storage.type").
type Storage struct {
	Type  string       `yaml:"type"`
	Local LocalStorage `yaml:"local"`
	S3    S3Storage    `yaml:"s3"`
}

// LocalStorage configures the filesystem StorageBackend variant.
type LocalStorage struct {
	RootDirectory string `yaml:"rootdirectory"`
}

// S3Storage configures the S3-compatible StorageBackend variant.
type S3Storage struct {
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	RegionEndpoint string `yaml:"regionendpoint"`
	ForcePathStyle bool   `yaml:"forcepathstyle"`
	Secure         bool   `yaml:"secure"`
	AccessKey      string `yaml:"accesskey"`
	SecretKey      string `yaml:"secretkey"`
}

// defaultMaxPublishSize is spec.md §6's default crates.max_publish_size
// (100 MiB).
const defaultMaxPublishSize = 100 * 1024 * 1024

// defaultBind is both v4 and v6 unspecified on port 8000: a single
// dual-stack listener address, since Go's net.Listen on most platforms
// already binds both families for an unspecified TCP address.
var defaultBind = []string{":8000"}

// ApplyDefaults fills in any zero-valued field spec.md §6 assigns a
// default to. Called after YAML parsing and the environment overlay, so
// an explicit zero value in either one is indistinguishable from an
// omitted field — matching the teacher's own parser, which has the same
// limitation.
func (c *Configuration) ApplyDefaults() {
	if c.Crates.MaxPublishSize == 0 {
		c.Crates.MaxPublishSize = defaultMaxPublishSize
	}
	if len(c.Server.Bind) == 0 {
		c.Server.Bind = defaultBind
	}
	if c.Auth.Type == "" {
		c.Auth.Type = "none"
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Formatter == "" {
		c.Log.Formatter = "text"
	}
}
