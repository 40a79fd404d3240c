// Package config loads the settings of a report run.
//
// # Configuration Sources
//
// Values are resolved in the following order, later sources winning:
//
//  1. Default values
//  2. The settings file (JSON or YAML, chosen by extension)
//  3. A .env file in the working directory
//  4. Environment variables
//
// # Environment Variables
//
// The e-mail credentials use the names the deployment already exports:
//
//	EMAIL=relatorios@example.com
//	EMAIL_SENHA=app-password
//
// Everything else is namespaced with RELATORIO_*:
//
//	RELATORIO_INPUT_PATH=./data/vendas.xlsx
//	RELATORIO_OUTPUT_PDF=./output/relatorio_vendas.pdf
//	RELATORIO_LOGGING_LEVEL=debug
//	RELATORIO_EMAIL_RECEIVER=diretoria@example.com
//	RELATORIO_TELEMETRY_PUSHGATEWAY_URL=http://pushgateway:9091
//
// # Usage
//
//	cfg, err := config.Load(config.DefaultConfigPath)
//	if err != nil {
//	    return err
//	}
//
// The returned Config is a plain value. Stages receive it as a parameter and
// never mutate it.
package config
