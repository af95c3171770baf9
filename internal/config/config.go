package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/period"
)

// Settings is the validated view of the config file and environment.
type Settings struct {
	Start  string `validate:"required"`
	End    string `validate:"required"`
	Window int    `validate:"min=1"`
	Align  string `validate:"oneof=trailing centered"`
	DBPath string `validate:"required"`

	Sentiment SentimentSettings
}

type SentimentSettings struct {
	Provider       string `validate:"omitempty,oneof=openai"`
	APIKey         string
	Model          string
	Endpoint       string `validate:"omitempty,url"`
	MaxBatch       int    `validate:"gte=0"`
	MaxConcurrency int    `validate:"gte=0"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("construction.start", "2016-02-01")
	v.SetDefault("construction.end", "2018-05-31")
	v.SetDefault("rolling.window", 3)
	v.SetDefault("rolling.align", string(period.Trailing))
	v.SetDefault("db.path", utils.DefaultDBPath)
	v.SetDefault("sentiment.provider", "openai")
	v.SetDefault("sentiment.api_key", "")
	v.SetDefault("sentiment.model", "")
	v.SetDefault("sentiment.endpoint", "")
	v.SetDefault("sentiment.max_batch", 0)
	v.SetDefault("sentiment.max_concurrency", 0)
}

var validate = validator.New()

// Load reads Settings from v and validates them.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		Start:  strings.TrimSpace(v.GetString("construction.start")),
		End:    strings.TrimSpace(v.GetString("construction.end")),
		Window: v.GetInt("rolling.window"),
		Align:  strings.ToLower(strings.TrimSpace(v.GetString("rolling.align"))),
		DBPath: v.GetString("db.path"),
		Sentiment: SentimentSettings{
			Provider:       strings.ToLower(strings.TrimSpace(v.GetString("sentiment.provider"))),
			APIKey:         v.GetString("sentiment.api_key"),
			Model:          v.GetString("sentiment.model"),
			Endpoint:       v.GetString("sentiment.endpoint"),
			MaxBatch:       v.GetInt("sentiment.max_batch"),
			MaxConcurrency: v.GetInt("sentiment.max_concurrency"),
		},
	}
	if s.Sentiment.APIKey == "" {
		s.Sentiment.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks field constraints and that the construction dates form a valid boundary.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := s.Boundary(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Boundary returns the configured construction boundary.
func (s Settings) Boundary() (period.Boundary, error) {
	return period.ParseBoundary(s.Start, s.End)
}

// Rolling returns the configured rolling-window options.
func (s Settings) Rolling() (period.RollingOptions, error) {
	align, err := period.ParseAlign(s.Align)
	if err != nil {
		return period.RollingOptions{}, err
	}
	opts := period.RollingOptions{Window: s.Window, Align: align}
	return opts, opts.Validate()
}
