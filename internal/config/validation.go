package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/keiba-sim/internal/betting"
	"github.com/yourusername/keiba-sim/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Tags are fixed at compile time, registration cannot fail
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("formula", validateFormula)
	_ = v.RegisterValidation("bettype", validateBetType)
	_ = v.RegisterValidation("betmethod", validateBetMethod)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateFormula(fl validator.FieldLevel) bool {
	switch betting.Formula(fl.Field().String()) {
	case betting.FormulaSum, betting.FormulaAverage:
		return true
	default:
		return false
	}
}

// validateBetType accepts English or Japanese bet type names
func validateBetType(fl validator.FieldLevel) bool {
	_, err := models.ParseBetType(fl.Field().String())
	return err == nil
}

func validateBetMethod(fl validator.FieldLevel) bool {
	_, err := models.ParseBetMethod(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Simulation.StakePerTicket%cfg.Simulation.StakeUnit != 0 {
		return fmt.Errorf("simulation stake_per_ticket must be a multiple of stake_unit")
	}
	if cfg.Simulation.StakePerTicket < cfg.Simulation.MinStake {
		return fmt.Errorf("simulation stake_per_ticket cannot be below min_stake")
	}
	if err := validatePair(cfg.Simulation.BetType, cfg.Simulation.Method); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := validatePair(cfg.Backtest.BetType, cfg.Backtest.Method); err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	if cfg.Backtest.StartDate != "" && cfg.Backtest.EndDate != "" {
		start, err := time.Parse("2006-01-02", cfg.Backtest.StartDate)
		if err != nil {
			return fmt.Errorf("invalid backtest start_date format: %w", err)
		}
		end, err := time.Parse("2006-01-02", cfg.Backtest.EndDate)
		if err != nil {
			return fmt.Errorf("invalid backtest end_date format: %w", err)
		}
		if end.Before(start) {
			return fmt.Errorf("backtest start_date must not be after end_date")
		}
	}

	if cfg.Backtest.StakePerTicket > cfg.Backtest.InitialBankroll {
		return fmt.Errorf("backtest stake_per_ticket cannot exceed initial_bankroll")
	}

	for _, p := range cfg.Provider.Proxies {
		if !strings.Contains(p, "{url}") {
			return fmt.Errorf("provider proxy %q must contain a {url} placeholder", p)
		}
	}

	if _, err := cfg.Estimator.BettingConfig(); err != nil {
		return fmt.Errorf("estimator: %w", err)
	}

	return nil
}

func validatePair(betType, method string) error {
	bt, err := models.ParseBetType(betType)
	if err != nil {
		return err
	}
	m, err := models.ParseBetMethod(method)
	if err != nil {
		return err
	}
	return models.ValidateCombination(bt, m)
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "formula":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: sum, average\n", field)
		case "bettype":
			errMsg += fmt.Sprintf("- Field '%s' has unknown bet type '%v'\n", field, value)
		case "betmethod":
			errMsg += fmt.Sprintf("- Field '%s' has unknown bet method '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
