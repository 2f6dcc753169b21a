package api

import (
	emailDelivery "mail-assistant-backend/internal/email/delivery"
	emailRepo "mail-assistant-backend/internal/email/repository"
	emailUsecasePkg "mail-assistant-backend/internal/email/usecase"
	"mail-assistant-backend/pkg/ai"
	"mail-assistant-backend/pkg/config"
	"mail-assistant-backend/pkg/imap"
	"mail-assistant-backend/pkg/smtp"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	config          *config.Config
	emailHandler    *emailDelivery.EmailHandler
	templateHandler *emailDelivery.TemplateHandler
}

func NewHandler(db *gorm.DB, cfg *config.Config) (*Handler, error) {
	aiCfg := ai.Config{
		Provider:         ai.ProviderType(cfg.AIProvider),
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		OpenAIModel:      cfg.OpenAIModel,
		EmbeddingBaseURL: cfg.EmbeddingBaseURL,
		EmbeddingModel:   cfg.EmbeddingModel,
		EmbeddingDim:     cfg.EmbeddingDim,
		OllamaBaseURL:    cfg.OllamaBaseURL,
		OllamaModel:      cfg.OllamaModel,
	}
	completer, err := ai.NewCompleter(aiCfg)
	if err != nil {
		return nil, err
	}
	embedder, err := ai.NewEmbedder(aiCfg)
	if err != nil {
		return nil, err
	}
	log.Info("AI services initialized", "provider", cfg.AIProvider)

	emailRepository := emailRepo.NewEmailRepository(db)
	attrRepository := emailRepo.NewAttributeRepository(db)
	vectorRepository := emailRepo.NewVectorRepository(db)
	templateRepository := emailRepo.NewTemplateRepository(db)

	if err := templateRepository.SeedDefaults(); err != nil {
		return nil, err
	}

	transport := imap.NewClient(cfg.ImapServer, cfg.ImapPort, cfg.EmailAddress, cfg.EmailPassword)
	sender := smtp.NewSender(cfg.SmtpServer, cfg.SmtpPort, cfg.EmailAddress, cfg.EmailPassword, cfg.SmtpStartTLS)

	indexerUc := emailUsecasePkg.NewIndexerUsecase(vectorRepository, embedder, cfg.ChunkLines)
	attributeUc := emailUsecasePkg.NewAttributeUsecase(emailRepository, attrRepository, completer)
	emailUc := emailUsecasePkg.NewEmailUsecase(emailRepository, transport, sender, indexerUc, attributeUc)
	searchUc := emailUsecasePkg.NewSearchUsecase(emailRepository, attrRepository, vectorRepository, embedder)
	summaryUc, err := emailUsecasePkg.NewSummaryUsecase(emailRepository, completer, cfg.Whoami, cfg.SummaryBudget, cfg.SummaryCacheSize)
	if err != nil {
		return nil, err
	}

	templateUc := emailUsecasePkg.NewTemplateUsecase(templateRepository)

	return &Handler{
		config:          cfg,
		emailHandler:    emailDelivery.NewEmailHandler(emailUc, searchUc, summaryUc, attributeUc, cfg.LookbackDays),
		templateHandler: emailDelivery.NewTemplateHandler(templateUc),
	}, nil
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	SetupRoutes(r, h)

	log.Info("server listening", "addr", addr)
	return r.Run(addr)
}
