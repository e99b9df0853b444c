package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InvoiceDefaults seeds new invoices and decorates rendered documents.
type InvoiceDefaults struct {
	TaxRate      float64 `mapstructure:"taxRate"`
	DueDays      int     `mapstructure:"dueDays"`
	Currency     string  `mapstructure:"currency"`
	Template     string  `mapstructure:"template"`
	Brand        string  `mapstructure:"brand"`
	FooterNote   string  `mapstructure:"footerNote"`
	ShareBaseURL string  `mapstructure:"shareBaseURL"`
}

func DefaultInvoiceDefaults() InvoiceDefaults {
	return InvoiceDefaults{
		TaxRate:      18,
		DueDays:      30,
		Currency:     string(domain.CurrencyINR),
		Template:     string(domain.TemplateModern),
		Brand:        "Invoice Builder Pro",
		FooterNote:   "Thank you for your business!",
		ShareBaseURL: "http://localhost:8080",
	}
}

type DefaultsHolder struct {
	current atomic.Value // holds InvoiceDefaults
	log     *zap.Logger
}

func NewDefaultsHolderFromConfig(cfg Config, log *zap.Logger) (*DefaultsHolder, error) {
	return NewDefaultsHolder(cfg.Invoice.DefaultsPath, log)
}

// NewDefaultsHolder reads invoice.yml (or the file at path) and watches it
// for changes. A missing file yields the built-in defaults; env vars prefixed
// with INVOICE_DEFAULTS_ override either.
func NewDefaultsHolder(path string, log *zap.Logger) (*DefaultsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := viper.New()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("invoice")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/invoicebuilder")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("INVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoiceDefaults()
	v.SetDefault("defaults.taxRate", defaults.TaxRate)
	v.SetDefault("defaults.dueDays", defaults.DueDays)
	v.SetDefault("defaults.currency", defaults.Currency)
	v.SetDefault("defaults.template", defaults.Template)
	v.SetDefault("defaults.brand", defaults.Brand)
	v.SetDefault("defaults.footerNote", defaults.FooterNote)
	v.SetDefault("defaults.shareBaseURL", defaults.ShareBaseURL)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
	}

	cfg, err := decodeDefaults(v)
	if err != nil {
		return nil, err
	}
	if err := validateDefaults(cfg); err != nil {
		return nil, err
	}

	holder := &DefaultsHolder{log: log.Named("config.defaults")}
	holder.current.Store(cfg)

	if found {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeDefaults(v)
			if err != nil {
				holder.log.Warn("reload failed", zap.Error(err))
				return
			}
			if err := holder.Set(updated); err != nil {
				holder.log.Warn("invalid defaults ignored", zap.Error(err))
				return
			}
			holder.log.Info("defaults reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

// decodeDefaults goes through Unmarshal so file values, env overrides and
// SetDefault values are merged per leaf key.
func decodeDefaults(v *viper.Viper) (InvoiceDefaults, error) {
	var wrapper struct {
		Defaults InvoiceDefaults `mapstructure:"defaults"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return InvoiceDefaults{}, err
	}
	return wrapper.Defaults, nil
}

// NewStaticDefaults returns a holder that never reloads.
func NewStaticDefaults(d InvoiceDefaults) *DefaultsHolder {
	holder := &DefaultsHolder{log: zap.NewNop()}
	holder.current.Store(d)
	return holder
}

func (h *DefaultsHolder) Get() InvoiceDefaults {
	return h.current.Load().(InvoiceDefaults)
}

// Set validates d and makes it current.
func (h *DefaultsHolder) Set(d InvoiceDefaults) error {
	if err := validateDefaults(d); err != nil {
		return err
	}
	h.current.Store(d)
	return nil
}

func validateDefaults(d InvoiceDefaults) error {
	if err := domain.ValidateTaxRate(d.TaxRate); err != nil {
		return fmt.Errorf("defaults.taxRate: %w", err)
	}
	if d.DueDays < 0 {
		return errors.New("defaults.dueDays cannot be negative")
	}
	if _, err := domain.ParseCurrency(d.Currency); err != nil {
		return fmt.Errorf("defaults.currency: %w", err)
	}
	if _, err := domain.ParseTemplate(d.Template); err != nil {
		return fmt.Errorf("defaults.template: %w", err)
	}
	return nil
}
