//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scenebridge/internal/config"
	"github.com/zeusync/scenebridge/internal/editor"
	"github.com/zeusync/scenebridge/internal/memsim"
	"github.com/zeusync/scenebridge/internal/server"
)

func InitializeEditor(cfg *config.Config, world *memsim.World) (*editor.Editor, func(), error) {
	wire.Build(EditorSet)
	return nil, nil, nil
}

func InitializeServer(cfg *config.Config, world *memsim.World) (*server.Server, func(), error) {
	wire.Build(EditorSet, ProvideServer)
	return nil, nil, nil
}
