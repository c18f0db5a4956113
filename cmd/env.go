package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/sync/semaphore"

	"github.com/siteslot/siteslot/internal/config"
	"github.com/siteslot/siteslot/internal/credential"
	"github.com/siteslot/siteslot/internal/engine"
	"github.com/siteslot/siteslot/internal/events"
	"github.com/siteslot/siteslot/internal/gitref"
	"github.com/siteslot/siteslot/internal/publish"
)

// workDir returns the absolute working directory.
func workDir() (string, error) {
	dir, err := filepath.Abs(viper.GetString("dir"))
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}
	return dir, nil
}

func loadInfra() (*config.InfraConfig, error) {
	return config.LoadInfra(config.Source{
		Inline: viper.GetString("infra-config"),
		File:   viper.GetString("infra-config-file"),
	})
}

func loadPipeline() (*config.PipelineConfig, error) {
	return config.LoadPipeline(config.Source{
		Inline: viper.GetString("pipeline-config"),
		File:   viper.GetString("pipeline-config-file"),
	})
}

// azureEnv is the Azure side of a command: subscription and credential.
type azureEnv struct {
	pipeline *config.PipelineConfig
	cred     azcore.TokenCredential
}

func loadAzure() (*azureEnv, error) {
	pipeline, err := loadPipeline()
	if err != nil {
		return nil, err
	}
	cred, err := credential.New(pipeline)
	if err != nil {
		return nil, err
	}
	return &azureEnv{pipeline: pipeline, cred: cred}, nil
}

func (a *azureEnv) backend(infra *config.InfraConfig) *publish.AzureBackend {
	return &publish.AzureBackend{
		SubscriptionID: a.pipeline.Azure.SubscriptionID,
		ResourceGroup:  infra.ResourceGroupName,
		Credential:     a.cred,
		StoreType:      viper.GetString("store-type"),
		MaxRetries:     viper.GetInt("max-retries"),
		Bucket:         viper.GetString("bucket"),
		Region:         viper.GetString("region"),
		Prefix:         viper.GetString("prefix"),
		KMSKey:         viper.GetString("kms-key"),
	}
}

// openRepo opens the git working copy holding the website code.
func openRepo(infra *config.InfraConfig, cwd string) (gitref.Repo, error) {
	return gitref.New(viper.GetString("git-driver"), infra.CodeDir(cwd))
}

func newEngine() *engine.Engine {
	n := viper.GetInt("max-concurrency")
	if n < 1 {
		n = 1
	}
	return engine.New(semaphore.NewWeighted(int64(n)))
}

func newEmitter() *events.Emitter {
	return events.NewEmitter(events.LogListener(log.Logger))
}

// newPublisher wires a Publisher from configuration and flags.
func newPublisher(version string) (*publish.Publisher, string, error) {
	cwd, err := workDir()
	if err != nil {
		return nil, "", err
	}
	infra, err := loadInfra()
	if err != nil {
		return nil, "", err
	}
	az, err := loadAzure()
	if err != nil {
		return nil, "", err
	}
	repo, err := openRepo(infra, cwd)
	if err != nil {
		return nil, "", err
	}
	return &publish.Publisher{
		Infra:       infra,
		Repo:        repo,
		Backend:     az.backend(infra),
		Engine:      newEngine(),
		Events:      newEmitter(),
		ToolVersion: version,
	}, cwd, nil
}

func request(cwd, version string, activate bool) publish.Request {
	return publish.Request{
		Cwd:      cwd,
		Version:  version,
		Excludes: viper.GetStringSlice("exclude"),
		Activate: activate,
	}
}
