package container

// Options is the service configuration. humacli exposes every field as a
// flag and as a SERVICE_ prefixed environment variable.
type Options struct {
	Port      int    `default:"8888"                  help:"Port to listen on"                                     short:"p"`
	BaseURL   string `default:"http://localhost:8888" help:"Public base URL used to build short URLs"`
	LogFormat string `default:"console"               help:"Log encoding: console or json"`

	Store          string `default:"memory"         help:"Link store backend: memory, redis or postgres" short:"s"`
	RedisAddr      string `default:"localhost:6379" help:"Redis server address"                          short:"r"`
	RedisKeyPrefix string `default:"shortlink:"     help:"Prefix for link keys in Redis"`
	PostgresDSN    string `default:""               help:"Postgres connection string"`
	CacheTTL       int    `default:"300"            help:"Seconds links are cached in Redis in front of Postgres, 0 disables"`

	KeyLength          int  `default:"6"        help:"Length of generated short keys"                   short:"k"`
	LinkTTL            int  `default:"31536000" help:"Seconds a link lives, 0 for forever"`
	Dedup              bool `default:"true"     help:"Return the existing key when a URL is shortened again"`
	CustomKeys         bool `default:"true"     help:"Allow callers to choose their own key"`
	MaxCustomKeyLength int  `default:"20"       help:"Maximum length of a custom key"`
	MaxMintAttempts    int  `default:"8"        help:"Generated keys tried before giving up"`

	NoReferrer      bool   `default:"false" help:"Serve an interstitial page instead of redirecting so targets see no referrer"`
	SafeBrowsingKey string `default:""      help:"Google Safe Browsing API key, empty disables the check"`
	PagesDir        string `default:""      help:"Directory with notfound.html, noreferrer.html or unsafe.html overrides"`

	AdminUsername  string `default:"admin" help:"Admin username"`
	AdminPassword  string `default:""      help:"Admin password, empty disables login"`
	JWTSecret      string `default:""      help:"Secret for signing session tokens, empty generates one per process"`
	APIKey         string `default:""      help:"API key accepted by the shorten endpoints, empty disables it"`
	SessionMaxAge  int    `default:"86400" help:"Seconds a session stays valid"`
	RateLimitMax   int    `default:"100"   help:"Shorten requests allowed per client per window"`
	RateLimitMS    int    `default:"60000" help:"Rate limit window in milliseconds"`
	RateLimitStore string `default:"memory" help:"Rate limit state: memory or redis"`

	DefaultPageSize int `default:"50"  help:"Admin listing page size when none is requested"`
	MaxPageSize     int `default:"100" help:"Largest admin listing page size"`

	Events        bool   `default:"false"     help:"Publish link events to Redis streams"`
	ConsumerGroup string `default:"shortlink" help:"Redis streams consumer group for the event consumer"`
}
