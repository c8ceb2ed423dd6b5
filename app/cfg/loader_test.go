package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	c := &Cfg{
		Port:              "8080",
		UserAgent:         "Test Agent",
		WorkerCount:       3,
		SchedulerInterval: 60,
		ImportInterval:    21600,
		APIAccessKey:      "test-key",
		ClicksDBPath:      "./data/clicks.db",
		Version:           "test-version",
		DBHost:            "localhost",
		DBPort:            "5432",
		DBUser:            "test_user",
		DBPassword:        "test_password",
		DBName:            "test_db",
		Timezone:          "UTC",
		Debug:             true,
	}

	if c.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", c.Port)
	}
	if c.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", c.UserAgent)
	}
	if c.WorkerCount != 3 {
		t.Errorf("Expected worker count 3, got %d", c.WorkerCount)
	}
	if c.SchedulerInterval != 60 {
		t.Errorf("Expected scheduler interval 60, got %d", c.SchedulerInterval)
	}
	if c.ImportInterval != 21600 {
		t.Errorf("Expected import interval 21600, got %d", c.ImportInterval)
	}
	if c.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", c.APIAccessKey)
	}
	if c.ClicksDBPath != "./data/clicks.db" {
		t.Errorf("Expected clicks DB path './data/clicks.db', got '%s'", c.ClicksDBPath)
	}
	if c.DBHost != "localhost" {
		t.Errorf("Expected DB host 'localhost', got '%s'", c.DBHost)
	}
	if !c.Debug {
		t.Error("Expected debug to be enabled")
	}
}

func TestSetForTesting(t *testing.T) {
	original := globalCfg
	defer func() { globalCfg = original }()

	c := &Cfg{Port: "9090"}
	SetForTesting(c)

	if Get() != c {
		t.Error("Expected Get to return the test configuration")
	}
}
