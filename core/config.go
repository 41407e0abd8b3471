package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug        bool
		TestMode     bool
		Env          string
		Build        string
		AppName      string
		WorkDir      string
		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
		ML       MLConfig
		Risk     RiskConfig
	}

	ServerConfig struct {
		Address         string
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// MLConfig locates the artifacts produced by the offline training job.
	// Relative paths are resolved against Config.WorkDir.
	MLConfig struct {
		PreprocessorPath string
		ClassifierPath   string
		MetadataPath     string
		PredictionsPath  string // CSV export of the bulk predictions
		PredictionsTable string // used instead of PredictionsPath when set
		SnapshotPath     string
	}

	// RiskConfig holds the product-tuned heuristics of the risk overlay.
	RiskConfig struct {
		ExamStrengthPerformance    float64 `validate:"finite,gt=0"`
		SubjectStrengthPerformance float64 `validate:"finite,gt=0,gtfield=SubjectWeaknessPerformance"`
		SubjectWeaknessPerformance float64 `validate:"finite,gte=0"`
		HighRiskBelow              float64 `validate:"finite,gte=0,lte=100"`
		LowRiskFrom                float64 `validate:"finite,gte=0,lte=100,gtfield=HighRiskBelow"`
	}
)

func (dbc DatabaseConfig) Address() string {
	return dbc.Host + ":" + itoa(dbc.Port)
}

// Resolve returns path unchanged if absolute, else joined to the working directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.WorkDir, path)
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "OnTrack")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "ontrack")
	v.SetDefault("database.user", "ontrack")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", false)

	v.SetDefault("ml.preprocessorPath", filepath.Join("artifacts", "preprocessor.json"))
	v.SetDefault("ml.classifierPath", filepath.Join("artifacts", "classifier.json"))
	v.SetDefault("ml.metadataPath", filepath.Join("artifacts", "evaluation.json"))
	v.SetDefault("ml.predictionsPath", filepath.Join("artifacts", "bulk_predictions.csv"))
	v.SetDefault("ml.predictionsTable", "")
	v.SetDefault("ml.snapshotPath", filepath.Join("artifacts", "students.json"))

	v.SetDefault("risk.examStrengthPerformance", 110.0)
	v.SetDefault("risk.subjectStrengthPerformance", 85.0)
	v.SetDefault("risk.subjectWeaknessPerformance", 70.0)
	v.SetDefault("risk.highRiskBelow", 50.0)
	v.SetDefault("risk.lowRiskFrom", 75.0)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		WorkDir:      workDir,
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		ML: MLConfig{
			PreprocessorPath: v.GetString("ml.preprocessorPath"),
			ClassifierPath:   v.GetString("ml.classifierPath"),
			MetadataPath:     v.GetString("ml.metadataPath"),
			PredictionsPath:  v.GetString("ml.predictionsPath"),
			PredictionsTable: v.GetString("ml.predictionsTable"),
			SnapshotPath:     v.GetString("ml.snapshotPath"),
		},
		Risk: RiskConfig{
			ExamStrengthPerformance:    v.GetFloat64("risk.examStrengthPerformance"),
			SubjectStrengthPerformance: v.GetFloat64("risk.subjectStrengthPerformance"),
			SubjectWeaknessPerformance: v.GetFloat64("risk.subjectWeaknessPerformance"),
			HighRiskBelow:              v.GetFloat64("risk.highRiskBelow"),
			LowRiskFrom:                v.GetFloat64("risk.lowRiskFrom"),
		},
	}
}
