package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/rules"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("FRAUD_SMTP_PASSWORD", "")
	t.Setenv("FRAUD_SMTP_FROM", "")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.local/share/fraud/fraud.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.Queue.FlushInterval)
	assert.True(t, cfg.Rules.AmountLimit.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, DefaultRegions(), cfg.Rules.Regions)
	assert.Equal(t, 40, cfg.Generator.CleanCount)
	assert.Equal(t, 10, cfg.Generator.SuspiciousCount)
	assert.Equal(t, ":4000", cfg.Server.Addr)
	assert.Equal(t, NotifyDriverLog, cfg.Notify.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
database:
  path: /tmp/fraud-test.db
queue:
  flush_interval: 250ms
rules:
  amount_limit: "2500.50"
  regions:
    - prefix: "192.168.1."
      currency: usd
    - prefix: "10.9.9."
      banned: true
generator:
  clean_count: 5
  suspicious_count: 7
notify:
  smtp:
    host: smtp.example.com
    from: alerts@example.com
`)))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/fraud-test.db", cfg.Database.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Queue.FlushInterval)
	assert.Equal(t, "2500.5", cfg.Rules.AmountLimit.String())
	assert.Equal(t, []Region{
		{Prefix: "192.168.1.", Currency: "usd"},
		{Prefix: "10.9.9.", Banned: true},
	}, cfg.Rules.Regions)
	assert.Equal(t, NotifyDriverSMTP, cfg.Notify.Driver, "a configured host selects smtp")
	assert.Equal(t, 587, cfg.Notify.SMTP.Port)

	policy := cfg.Rules.Policy()
	assert.Equal(t, map[string]string{"192.168.1.": "USD"}, policy.PrefixCurrencies)
	assert.Equal(t, []string{"10.9.9."}, policy.BannedPrefixes)
	assert.True(t, policy.IsBanned("10.9.9."))
}

func TestLoad_SMTPEnvironmentFallback(t *testing.T) {
	t.Setenv("FRAUD_SMTP_PASSWORD", "s3cret")
	t.Setenv("FRAUD_SMTP_FROM", "env@example.com")

	v := viper.New()
	v.Set("notify.smtp.host", "smtp.example.com")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Notify.SMTP.Password)
	assert.Equal(t, "env@example.com", cfg.Notify.SMTP.From)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		values  map[string]any
		wantErr error
		name    string
	}{
		{name: "bad limit", values: map[string]any{"rules.amount_limit": "lots"}, wantErr: common.ErrInvalidConfig},
		{name: "negative limit", values: map[string]any{"rules.amount_limit": "-1"}, wantErr: common.ErrInvalidConfig},
		{name: "zero interval", values: map[string]any{"queue.flush_interval": "0s"}, wantErr: common.ErrInvalidConfig},
		{name: "too few suspicious", values: map[string]any{"generator.suspicious_count": 6}, wantErr: common.ErrInvalidConfig},
		{name: "negative clean", values: map[string]any{"generator.clean_count": -1}, wantErr: common.ErrInvalidConfig},
		{name: "unknown driver", values: map[string]any{"notify.driver": "pigeon"}, wantErr: common.ErrInvalidConfig},
		{name: "smtp without host", values: map[string]any{"notify.driver": "smtp"}, wantErr: common.ErrMissingConfig},
		{name: "bad log level", values: map[string]any{"logging.level": "loud"}, wantErr: common.ErrInvalidConfig},
		{
			name:    "short prefix",
			values:  map[string]any{"rules.regions": []map[string]any{{"prefix": "10.0.", "currency": "USD"}}},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name: "duplicate prefix",
			values: map[string]any{"rules.regions": []map[string]any{
				{"prefix": "10.0.0.", "currency": "USD"},
				{"prefix": "10.0.0.", "banned": true},
			}},
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FRAUD_SMTP_FROM", "")
			v := viper.New()
			for k, val := range tt.values {
				v.Set(k, val)
			}

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MinimumSuspiciousCount(t *testing.T) {
	t.Setenv("FRAUD_SMTP_FROM", "")
	v := viper.New()
	v.Set("generator.suspicious_count", 7)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Generator.SuspiciousCount)
}

func TestRulesConfig_PolicyMatchesDefault(t *testing.T) {
	cfg := RulesConfig{AmountLimit: decimal.NewFromInt(1000), Regions: DefaultRegions()}
	policy := cfg.Policy()
	want := rules.DefaultPolicy()

	assert.Equal(t, want.PrefixCurrencies, policy.PrefixCurrencies)
	assert.ElementsMatch(t, want.BannedPrefixes, policy.BannedPrefixes)
	assert.True(t, want.AmountLimit.Equal(policy.AmountLimit))
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("FRAUD_DIR", "/srv/fraud")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/home/tester", ExpandPath("~"))
	assert.Equal(t, "/home/tester/fraud.db", ExpandPath("~/fraud.db"))
	assert.Equal(t, "/srv/fraud/fraud.db", ExpandPath("$FRAUD_DIR/fraud.db"))
	assert.Equal(t, "/abs/fraud.db", ExpandPath("/abs/fraud.db"))
}
