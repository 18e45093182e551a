package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/hanjia/skilldex/pkg/agents"
	"github.com/hanjia/skilldex/pkg/bridge"
	"github.com/hanjia/skilldex/pkg/catalog"
	"github.com/hanjia/skilldex/pkg/commands"
	"github.com/hanjia/skilldex/pkg/db"
	"github.com/hanjia/skilldex/pkg/plugins"
	"github.com/hanjia/skilldex/pkg/skills"
)

// resolvePaths builds the scan roots from flags/config, falling back to the
// conventional layout under the user's home directory.
func resolvePaths() (catalog.Paths, error) {
	home := viper.GetString("home")
	project := viper.GetString("project")
	if project == "" {
		project = "."
	}
	if home != "" {
		return catalog.PathsUnder(home, project), nil
	}

	paths, err := catalog.DefaultPaths()
	if err != nil {
		return catalog.Paths{}, err
	}
	paths.ProjectSkills = catalog.PathsUnder("", project).ProjectSkills
	return paths, nil
}

// buildIndexes wires the four resource indexes the commands and servers share.
// Plugin enabled state is persisted in the local sqlite database; the returned
// closer releases it.
func buildIndexes(ctx context.Context) (bridge.Indexes, func() error, error) {
	paths, err := resolvePaths()
	if err != nil {
		return bridge.Indexes{}, nil, err
	}

	skillIndex, err := skills.NewIndex(skills.WithPaths(paths))
	if err != nil {
		return bridge.Indexes{}, nil, errors.Wrap(err, "failed to create skill index")
	}
	agentIndex, err := agents.NewIndex(agents.WithRoot(paths.Agents))
	if err != nil {
		return bridge.Indexes{}, nil, errors.Wrap(err, "failed to create agent index")
	}
	commandIndex, err := commands.NewIndex(commands.WithRoot(paths.Commands))
	if err != nil {
		return bridge.Indexes{}, nil, errors.Wrap(err, "failed to create command index")
	}

	dbPath, err := db.DefaultPath()
	if err != nil {
		return bridge.Indexes{}, nil, err
	}
	registry, err := plugins.NewSQLiteRegistry(ctx, dbPath, paths.Marketplaces)
	if err != nil {
		return bridge.Indexes{}, nil, errors.Wrap(err, "failed to open plugin registry")
	}

	indexes := bridge.Indexes{
		Skills:   skillIndex,
		Agents:   agentIndex,
		Commands: commandIndex,
		Plugins:  plugins.NewIndex(registry),
	}
	return indexes, registry.Close, nil
}
