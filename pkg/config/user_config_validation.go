package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
	"github.com/jesseduffield/hardpresent/pkg/fault"
	"github.com/jesseduffield/hardpresent/pkg/hardening"
	"github.com/jesseduffield/hardpresent/pkg/present"
	"github.com/jesseduffield/hardpresent/pkg/shadow"
	"github.com/jesseduffield/hardpresent/pkg/utils"
	"github.com/samber/lo"
)

// Validate validates the user config
func (config *UserConfig) Validate() error {
	if !lo.Contains(hardening.Names(), config.Cipher.Strategy) {
		return errors.Errorf("Unrecognized strategy '%s' for 'Cipher.Strategy'. Expected one of %v", config.Cipher.Strategy, hardening.Names())
	}

	if _, err := shadow.ParsePolicy(config.Cipher.ShadowPolicy); err != nil {
		return err
	}

	if err := validateByteFormat(config.Output.ByteFormat); err != nil {
		return err
	}

	return config.Campaign.Validate()
}

// Validate validates the campaign section on its own, since flags can
// override it after the file is loaded
func (config *CampaignConfig) Validate() error {
	unknown := lo.Filter(config.Strategies, func(name string, _ int) bool {
		return !lo.Contains(hardening.Names(), name)
	})
	if len(unknown) > 0 {
		return errors.Errorf("Unrecognized strategies %v for 'Campaign.Strategies'. Expected any of %v", unknown, hardening.Names())
	}

	for _, model := range config.Models {
		if _, err := fault.ParseModel(model); err != nil {
			return err
		}
	}

	for _, round := range config.Rounds {
		if round < 0 || round >= present.Rounds {
			return errors.Errorf("Round %d in 'Campaign.Rounds' is out of range. Rounds go from 0 to %d", round, present.Rounds-1)
		}
	}

	if config.Workers <= 0 {
		return errors.Errorf("'Campaign.Workers' must be positive, got %d", config.Workers)
	}

	if config.Timeout <= 0 {
		return errors.Errorf("'Campaign.Timeout' must be positive, got %s", config.Timeout)
	}

	return validateHexRecurse("Campaign", *config)
}

// validateByteFormat makes sure the format consumes exactly one byte
func validateByteFormat(format string) error {
	if out := fmt.Sprintf(format, byte(0xab)); strings.Contains(out, "%!") {
		return errors.Errorf("'Output.ByteFormat' %q does not format a single byte: %s", format, out)
	}
	return nil
}

// validateHexRecurse walks a config struct and checks every string list
// tagged with `hex:"<bytes>"`
func validateHexRecurse(path string, node interface{}) error {
	value := reflect.ValueOf(node)
	if value.Kind() != reflect.Struct {
		return nil
	}

	for _, field := range reflect.VisibleFields(value.Type()) {
		newPath := fmt.Sprintf("%s.%s", path, field.Name)
		fieldValue := value.FieldByIndex(field.Index)

		tag, ok := field.Tag.Lookup("hex")
		if !ok {
			if err := validateHexRecurse(newPath, fieldValue.Interface()); err != nil {
				return err
			}
			continue
		}

		size, err := strconv.Atoi(tag)
		if err != nil {
			return errors.Errorf("bad hex tag on '%s': %s", newPath, tag)
		}

		items, ok := fieldValue.Interface().([]string)
		if !ok {
			return errors.Errorf("Unexpected type for property '%s': %s", newPath, fieldValue.Kind())
		}

		for _, item := range items {
			if _, err := utils.DecodeHex(item, size); err != nil {
				return errors.Errorf("Invalid value in '%s': %s", newPath, err)
			}
		}
	}

	return nil
}
