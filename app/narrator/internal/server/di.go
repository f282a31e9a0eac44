package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/data"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/service"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/usecase"
)

// ProviderSet 是叙事服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,

	// Collaborator providers
	NewNarratorConfig,
	NewPriceFeed,
	NewStoryteller,
	NewSpeechSynthesizer,

	// Data providers
	data.NewData,
	data.NewProgressionRepo,
	data.NewJournalRepo,

	// UseCase providers
	usecase.NewNarrativeUseCase,

	// Service providers
	service.NewNarrativeService,
)
