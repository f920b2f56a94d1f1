package config

import (
	"os"
	"strconv"
)

type ConfigStruct struct {
	Gemini  GeminiConfig
	Options Options
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type Options struct {
	Port          string
	Workers       int // concurrent generation workers
	MaxLineLength int // target characters per generated lyric line
	HardLineLimit bool
	MaxUploadMB   int
	DBPath        string
}

func (g *GeminiConfig) IsConfigured() bool {
	return g.APIKey != ""
}

var Config *ConfigStruct

func NewConfig() {
	config := &ConfigStruct{
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getGeminiModel(),
		},
		Options: Options{
			Port:          os.Getenv("PORT"),
			Workers:       getWorkers(),
			MaxLineLength: getMaxLineLength(),
			HardLineLimit: os.Getenv("HARD_LINE_LIMIT") == "true",
			MaxUploadMB:   getMaxUploadMB(),
			DBPath:        os.Getenv("DB_PATH"),
		},
	}

	Config = config
}

func getGeminiModel() string {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		return "gemini-2.5-flash"
	}
	return model
}

func getWorkers() int {
	workersStr := os.Getenv("GENERATION_WORKERS")
	if workersStr == "" {
		return 3
	}
	workers, err := strconv.Atoi(workersStr)
	if err != nil || workers <= 0 {
		return 3
	}
	// Each worker holds a full decode buffer plus an in-flight upload; keep it small.
	if workers > 8 {
		return 8
	}
	return workers
}

func getMaxLineLength() int {
	lengthStr := os.Getenv("MAX_LINE_LENGTH")
	if lengthStr == "" {
		return 42
	}
	length, err := strconv.Atoi(lengthStr)
	if err != nil || length <= 0 {
		return 42
	}
	if length < 16 {
		return 16
	}
	if length > 120 {
		return 120
	}
	return length
}

func getMaxUploadMB() int {
	sizeStr := os.Getenv("MAX_UPLOAD_MB")
	if sizeStr == "" {
		return 50
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size <= 0 {
		return 50
	}
	if size > 200 {
		return 200
	}
	return size
}
