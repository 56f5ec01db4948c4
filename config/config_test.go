package config_test

import (
	"testing"

	"github.com/eaton-coreymutter/iotech-c-utils/config"
	"github.com/eaton-coreymutter/iotech-c-utils/container"
	"github.com/eaton-coreymutter/iotech-c-utils/deviceapi"
)

// TestParsePreservesKeyCasing guards against a regression to viper-style
// parsing: Parse must hand back exactly the keys the JSON text used,
// not a lower-cased rendition of them.
func TestParsePreservesKeyCasing(t *testing.T) {
	cfg, err := config.Parse(`{"Logger": "main", "Affinity": 1, "nested": {"BaudRate": 9600}}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := cfg.String("Logger"); err != nil {
		t.Fatalf("expected capitalized key %q to resolve, got: %v", "Logger", err)
	}
	if _, err := cfg.Int("Affinity"); err != nil {
		t.Fatalf("expected capitalized key %q to resolve, got: %v", "Affinity", err)
	}
	sub, err := cfg.SubMap("nested")
	if err != nil {
		t.Fatalf("SubMap: %v", err)
	}
	if _, err := sub.Int("BaudRate"); err != nil {
		t.Fatalf("expected nested capitalized key %q to resolve, got: %v", "BaudRate", err)
	}
}

// TestParseRoundTripSchedulerFactory is the maintainer-requested
// regression covering a full config.Parse -> SchedulerFactory.New round
// trip on JSON using the capitalized keys spec.md §6 specifies
// ("Logger", "Affinity", "Priority"). Before the fix, these would have
// been silently lower-cased by viper and every lookup below would fail.
func TestParseRoundTripSchedulerFactory(t *testing.T) {
	cfg, err := config.Parse(`{"Logger": "log", "Affinity": 1, "Priority": 2}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	p := container.NewProcess(nil, nil)
	c, err := p.Alloc("test")
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	comp, err := (container.SchedulerFactory{}).New(c, cfg)
	if err != nil {
		t.Fatalf("SchedulerFactory.New: %v", err)
	}
	if comp == nil {
		t.Fatalf("expected a non-nil scheduler component")
	}
}

// TestParseRoundTripDeviceAPIFactory is the maintainer-requested
// regression covering a full config.Parse -> deviceapi.Factory.New round
// trip on JSON using deviceapi's capitalized configuration surface
// ("BusType", "Address", "ListenAddresses", "Commands", "SlaveId",
// "Quantity").
func TestParseRoundTripDeviceAPIFactory(t *testing.T) {
	jsonText := `{
		"BusType": "ModbusTCP",
		"Address": "localhost:5020",
		"ListenAddresses": ["127.0.0.1:0"],
		"Commands": {
			"Temp": {
				"Path": "/temp",
				"SlaveId": 1,
				"Address": 10,
				"Quantity": 2,
				"Values": {
					"temp": {"offset": 0, "type": "int16"}
				}
			}
		}
	}`

	cfg, err := config.Parse(jsonText)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	p := container.NewProcess(nil, nil)
	c, err := p.Alloc("test")
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	comp, err := (deviceapi.Factory{}).New(c, cfg)
	if err != nil {
		t.Fatalf("deviceapi.Factory.New: %v", err)
	}
	if comp == nil {
		t.Fatalf("expected a non-nil device api component")
	}
}
