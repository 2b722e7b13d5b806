package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config carries what the backends need.
type Config struct {
	Client Client `yaml:"client"`

	// Timeout bounds a whole exchange. Zero means no client-side timeout.
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is sent on every request when set.
	UserAgent string `yaml:"user_agent"`

	// Headless and IdleAfter only apply to the chromedp backend.
	Headless  *bool         `yaml:"headless"`
	IdleAfter time.Duration `yaml:"idle_after"`
}
