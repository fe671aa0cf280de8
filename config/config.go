package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is reported on the root endpoint and the startup banner.
const Version = "1.2.0"

const (
	defaultPort       int    = 8000
	defaultLogLevel   string = "info"
	defaultHashLength int    = 6
)

var ValueOf = &config{
	Port:       defaultPort,
	LogLevel:   defaultLogLevel,
	HashLength: defaultHashLength,
}

// workerBots decodes the WORKER_BOTS comma list.
type workerBots []string

func (wb *workerBots) Decode(value string) error {
	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			*wb = append(*wb, token)
		}
	}
	return nil
}

type config struct {
	ApiID         int32      `envconfig:"API_ID" required:"true"`
	ApiHash       string     `envconfig:"API_HASH" required:"true"`
	MainBotToken  string     `envconfig:"MAIN_BOT_TOKEN" required:"true"`
	WorkerBots    workerBots `envconfig:"WORKER_BOTS"`
	DumpChannelID int64      `envconfig:"DUMP_CHANNEL" required:"true"`
	BaseURL       string     `envconfig:"BASE_URL"`
	Port          int        `envconfig:"PORT" default:"8000"`
	OwnerID       int64      `envconfig:"OWNER_ID"`

	Dev            bool   `envconfig:"DEV" default:"false"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	HashLength     int    `envconfig:"HASH_LENGTH" default:"6"`
	UseSessionFile bool   `envconfig:"USE_SESSION_FILE" default:"true"`

	multiTokens []string
}

// WorkerTokens returns the worker bot tokens: the WORKER_BOTS list when
// set, otherwise the enumerated MULTI_TOKEN<n> variables.
func (c *config) WorkerTokens() []string {
	if len(c.WorkerBots) > 0 {
		return c.WorkerBots
	}
	return c.multiTokens
}

var multiTokenRegex = regexp.MustCompile(`MULTI_TOKEN\d+=(.*)`)

func (c *config) loadFromEnvFile(log *zap.Logger) {
	envPath := filepath.Clean("f2l.env")
	log.Sugar().Infof("Trying to load ENV vars from %s", envPath)
	err := godotenv.Load(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Sugar().Infof("ENV file not found: %s", envPath)
			log.Sugar().Info("Falling back to the process environment. Ignore this when env vars are set by the host.")
		} else {
			log.Fatal("Unknown error while parsing env file.", zap.Error(err))
		}
	}
}

func SetFlagsFromConfig(cmd *cobra.Command) {
	cmd.Flags().Int32("api-id", ValueOf.ApiID, "Telegram API ID")
	cmd.Flags().String("api-hash", ValueOf.ApiHash, "Telegram API Hash")
	cmd.Flags().String("main-bot-token", ValueOf.MainBotToken, "Primary bot token")
	cmd.Flags().Int64("dump-channel", ValueOf.DumpChannelID, "Archive channel ID")
	cmd.Flags().String("base-url", ValueOf.BaseURL, "Public URL used in generated links")
	cmd.Flags().IntP("port", "p", ValueOf.Port, "HTTP server port")
	cmd.Flags().Bool("dev", ValueOf.Dev, "Enable development mode")
	cmd.Flags().String("log-level", ValueOf.LogLevel, "Log level")
}

func (c *config) loadConfigFromArgs(cmd *cobra.Command) {
	if cmd.Flags().Changed("api-id") {
		apiID, _ := cmd.Flags().GetInt32("api-id")
		os.Setenv("API_ID", strconv.Itoa(int(apiID)))
	}
	if cmd.Flags().Changed("api-hash") {
		apiHash, _ := cmd.Flags().GetString("api-hash")
		os.Setenv("API_HASH", apiHash)
	}
	if cmd.Flags().Changed("main-bot-token") {
		token, _ := cmd.Flags().GetString("main-bot-token")
		os.Setenv("MAIN_BOT_TOKEN", token)
	}
	if cmd.Flags().Changed("dump-channel") {
		dumpChannel, _ := cmd.Flags().GetInt64("dump-channel")
		os.Setenv("DUMP_CHANNEL", strconv.FormatInt(dumpChannel, 10))
	}
	if cmd.Flags().Changed("base-url") {
		baseURL, _ := cmd.Flags().GetString("base-url")
		os.Setenv("BASE_URL", baseURL)
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		os.Setenv("PORT", strconv.Itoa(port))
	}
	if cmd.Flags().Changed("dev") {
		dev, _ := cmd.Flags().GetBool("dev")
		os.Setenv("DEV", strconv.FormatBool(dev))
	}
	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		os.Setenv("LOG_LEVEL", level)
	}
}

func (c *config) loadMultiTokensFromEnv() {
	c.multiTokens = c.multiTokens[:0]
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "MULTI_TOKEN") {
			continue
		}
		match := multiTokenRegex.FindStringSubmatch(env)
		if len(match) != 2 {
			continue
		}
		token := strings.TrimSpace(match[1])
		if token == "" {
			continue
		}
		c.multiTokens = append(c.multiTokens, token)
	}
}

func (c *config) setupEnvVars(log *zap.Logger, cmd *cobra.Command) {
	c.loadFromEnvFile(log)
	c.loadConfigFromArgs(cmd)
	if err := envconfig.Process("", c); err != nil {
		log.Fatal("Error while parsing env variables", zap.Error(err))
	}
	c.loadMultiTokensFromEnv()
}

func Load(log *zap.Logger, cmd *cobra.Command) {
	log = log.Named("Config")
	defer log.Info("Loaded config")
	ValueOf.setupEnvVars(log, cmd)

	// The archive channel is stored as a plain channel ID; peel off the
	// bot-API -100 marker when the operator configured that form.
	ValueOf.DumpChannelID = stripChannelPrefix(log, ValueOf.DumpChannelID)
	log.Sugar().Infof("Archive channel configured: %d", ValueOf.DumpChannelID)

	ValueOf.BaseURL = strings.TrimRight(ValueOf.BaseURL, "/")
	if ValueOf.BaseURL == "" {
		ValueOf.BaseURL = fmt.Sprintf("http://localhost:%d", ValueOf.Port)
		log.Sugar().Infof("BASE_URL not set, links will use %s", ValueOf.BaseURL)
	}

	if ValueOf.HashLength < 5 || ValueOf.HashLength > 32 {
		log.Sugar().Infof("HASH_LENGTH %d out of range, defaulting to %d", ValueOf.HashLength, defaultHashLength)
		ValueOf.HashLength = defaultHashLength
	}
	if ValueOf.OwnerID == 0 {
		log.Sugar().Warn("OWNER_ID not set, admin commands are disabled")
	}
}

func stripChannelPrefix(log *zap.Logger, id int64) int64 {
	if id >= 0 {
		return id
	}
	strID := strconv.FormatInt(-id, 10)
	plain := strings.TrimPrefix(strID, "100")
	result, err := strconv.ParseInt(plain, 10, 64)
	if err != nil {
		log.Sugar().Fatalln(err)
		return 0
	}
	return result
}
