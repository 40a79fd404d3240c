package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"salesreport/internal/errors"
)

// Config represents the complete application configuration. It is built once
// by Load and passed by value to every stage of the pipeline.
type Config struct {
	InputPath   string          `json:"input_path" yaml:"input_path" envconfig:"INPUT_PATH" validate:"required"`
	InputSheet  string          `json:"input_sheet" yaml:"input_sheet" envconfig:"INPUT_SHEET" validate:"required"`
	Columns     ColumnsConfig   `json:"columns" yaml:"columns" envconfig:"COLUMNS"`
	OutputExcel string          `json:"output_excel" yaml:"output_excel" envconfig:"OUTPUT_EXCEL" validate:"required"`
	OutputPDF   string          `json:"output_pdf" yaml:"output_pdf" envconfig:"OUTPUT_PDF" validate:"required"`
	Charts      ChartsConfig    `json:"charts" yaml:"charts" envconfig:"CHARTS"`
	Email       EmailConfig     `json:"email" yaml:"email" ignored:"true"`
	Logging     LoggingConfig   `json:"logging" yaml:"logging" envconfig:"LOGGING"`
	Telemetry   TelemetryConfig `json:"telemetry" yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ColumnsConfig holds the header names of the source sheet
type ColumnsConfig struct {
	Salesperson string `json:"salesperson" yaml:"salesperson" envconfig:"SALESPERSON" validate:"required"`
	Region      string `json:"region" yaml:"region" envconfig:"REGION" validate:"required"`
	Amount      string `json:"amount" yaml:"amount" envconfig:"AMOUNT" validate:"required"`
}

// ChartsConfig holds the output paths of the two bar charts
type ChartsConfig struct {
	SalespersonPath string `json:"salesperson_path" yaml:"salesperson_path" envconfig:"SALESPERSON_PATH" validate:"required"`
	RegionPath      string `json:"region_path" yaml:"region_path" envconfig:"REGION_PATH" validate:"required"`
}

// EmailConfig contains the delivery settings. Sender and Password come from
// the EMAIL and EMAIL_SENHA environment variables and are never read from
// the settings file.
type EmailConfig struct {
	Sender   string `json:"-" yaml:"-" envconfig:"EMAIL"`
	Password string `json:"-" yaml:"-" envconfig:"EMAIL_SENHA"`
	Receiver string `json:"receiver" yaml:"receiver" envconfig:"RELATORIO_EMAIL_RECEIVER"`
	Subject  string `json:"subject" yaml:"subject" envconfig:"RELATORIO_EMAIL_SUBJECT"`
	SMTPHost string `json:"smtp_host" yaml:"smtp_host" envconfig:"RELATORIO_EMAIL_SMTP_HOST" validate:"required,hostname|ip"`
	SMTPPort int    `json:"smtp_port" yaml:"smtp_port" envconfig:"RELATORIO_EMAIL_SMTP_PORT" validate:"min=1,max=65535"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `json:"level" yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `json:"format" yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `json:"output" yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `json:"file_path" yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig controls tracing and the metrics push at the end of a run
type TelemetryConfig struct {
	ServiceName    string `json:"service_name" yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string `json:"environment" yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string `json:"trace_exporter" yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout file"`
	TraceFile      string `json:"trace_file" yaml:"trace_file" envconfig:"TRACE_FILE" validate:"required_if=TraceExporter file"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url" envconfig:"PUSHGATEWAY_URL" validate:"omitempty,url"`
}

// EnvPrefix is the prefix of every environment override except the e-mail
// credentials.
const EnvPrefix = "RELATORIO"

// DefaultConfigPath is where the CLI looks for settings when no flag is given
const DefaultConfigPath = "./config/settings.json"

// Default returns default configuration
func Default() Config {
	return Config{
		InputPath:   "./data/vendas.xlsx",
		InputSheet:  "Sheet1",
		OutputExcel: "./output/relatorio_consolidado.xlsx",
		OutputPDF:   "./output/relatorio_vendas.pdf",
		Columns: ColumnsConfig{
			Salesperson: "Vendedor",
			Region:      "Região",
			Amount:      "Valor da Venda (R$)",
		},
		Charts: ChartsConfig{
			SalespersonPath: "./output/vendas_por_vendedor.png",
			RegionPath:      "./output/vendas_por_regiao.png",
		},
		Email: EmailConfig{
			Subject:  "Relatório Diário de Vendas",
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 587,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/salesreport.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "salesreport",
			Environment:   "production",
			TraceExporter: "none",
		},
	}
}

// Load builds the configuration from defaults, the settings file at path, a
// .env file next to the working directory and the process environment, in
// that order of precedence (last wins). Every failure is a CONFIG error.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := loadFromFile(path, &cfg); err != nil {
		return Config{}, errors.NewConfigError(fmt.Sprintf("failed to load settings from %s", path), err).
			WithContext("path", path)
	}

	// A missing .env is normal in production where secrets come from the environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.NewConfigError("failed to load .env file", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, errors.NewConfigError("failed to load config from env", err)
	}
	if err := envconfig.Process("", &cfg.Email); err != nil {
		return Config{}, errors.NewConfigError("failed to load e-mail settings from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// loadFromFile overlays the settings file on cfg. The format follows the
// extension: .json, or .yaml/.yml.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported settings format %q", ext)
	}
}

// Validate checks the configuration with the struct tags above
func (c Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
		} else {
			fields = append(fields, err.Error())
		}
		return errors.NewConfigError("invalid configuration: "+strings.Join(fields, ", "), err)
	}
	return nil
}

// ValidateDelivery reports a CONFIG error when the e-mail step cannot run
// because credentials or the recipient are missing.
func (c Config) ValidateDelivery() error {
	var missing []string
	if c.Email.Sender == "" {
		missing = append(missing, "EMAIL")
	}
	if c.Email.Password == "" {
		missing = append(missing, "EMAIL_SENHA")
	}
	if c.Email.Receiver == "" {
		missing = append(missing, "email.receiver")
	}
	if len(missing) > 0 {
		return errors.NewConfigError("e-mail delivery is not configured, missing "+strings.Join(missing, ", "), nil)
	}
	return nil
}
