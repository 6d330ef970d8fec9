package i18n

import (
	"io"
	"reflect"
	"testing"

	"github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newDummyLog() *logrus.Entry {
	log := logrus.New()
	log.Out = io.Discard
	return log.WithField("test", "test")
}

// TestDetectLanguage is a function.
func TestDetectLanguage(t *testing.T) {
	type scenario struct {
		langDetector func() (string, error)
		expected     string
	}

	scenarios := []scenario{
		{
			func() (string, error) {
				return "", errors.New("an error")
			},
			"C",
		},
		{
			func() (string, error) {
				return "pl", nil
			},
			"pl",
		},
	}

	for _, s := range scenarios {
		assert.EqualValues(t, s.expected, detectLanguage(s.langDetector))
	}
}

func TestNewTranslationSetFromConfig(t *testing.T) {
	type scenario struct {
		language string
		detected string
		err      string
	}

	scenarios := []scenario{
		{"pl", "wykryto", ""},
		{"en", "detected", ""},
		{"tlh", "detected", "Language not found: tlh"},
	}

	for _, s := range scenarios {
		set, err := NewTranslationSetFromConfig(newDummyLog(), s.language)
		if s.err != "" {
			assert.EqualError(t, err, s.err)
		} else {
			assert.NoError(t, err)
		}
		assert.Equal(t, s.detected, set.Detected)
	}
}

func TestUnknownLanguageFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, englishSet(), *NewTranslationSet(newDummyLog(), "C"))
}

// every translation is complete, so nothing silently falls back to English
func TestTranslationSetsAreComplete(t *testing.T) {
	for language, set := range GetTranslationSets() {
		value := reflect.ValueOf(set)
		for i := 0; i < value.NumField(); i++ {
			assert.NotEmpty(t, value.Field(i).String(), "%s is missing %s", language, value.Type().Field(i).Name)
		}
	}
}
