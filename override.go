package tglog

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ApplyOverride applies "key=value" overrides to the configuration. Either all
// overrides are applied or, on any error, none are.
//
// Example:
//
//	cfg := tglog.DefaultConfig()
//	err := cfg.ApplyOverride(
//	    "token=123:abc",
//	    "chat_id=-100200300",
//	    "level=warn",
//	)
func (c *Config) ApplyOverride(overrides ...string) error {
	cfg := c.Clone()

	var errs []error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := applyConfigField(cfg, key, value); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return combineConfigErrors(errs)
	}

	*c = *cfg
	return nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString("tglog: multiple configuration errors:")
	for i, err := range errs {
		errMsg := strings.TrimPrefix(err.Error(), "tglog: ")
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, errMsg)
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField parses value for the field tagged key and stores it in cfg
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	case "level":
		// Accept both numeric and named values
		if numVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			cfg.Level = numVal
			return nil
		}
		levelVal, err := Level(value)
		if err != nil {
			return fmtErrorf("invalid level value '%s': %w", value, err)
		}
		cfg.Level = levelVal
		return nil
	case "parse_mode":
		mode, err := ParseParseMode(value)
		if err != nil {
			return err
		}
		cfg.ParseMode = string(mode)
		return nil
	case "retry_strategy":
		strategy, err := ParseRetryStrategy(value)
		if err != nil {
			return err
		}
		cfg.RetryStrategy = string(strategy)
		return nil
	}

	field, ok := configFields(cfg)[key]
	if !ok {
		return fmtErrorf("unknown configuration key '%s'", key)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int64:
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
		}
		field.SetInt(intVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
		}
		field.SetBool(boolVal)
	default:
		return fmtErrorf("unsupported field type for %s: %v", key, field.Kind())
	}
	return nil
}
