package catalog

import (
	"github.com/nexa-digital/nexus-chat-go/internal/models"
)

// builtinAssistants returns the shipped personas in their fixed display order.
func builtinAssistants() []models.Assistant {
	return []models.Assistant{
		{
			ID:          "nexus-ai-001",
			Name:        "Nexus AI",
			Description: "El primer Chat autónomo de Costa Rica",
			Avatar:      "https://images.unsplash.com/photo-1620712943543-bcc4688e7485?w=64&h=64&fit=crop&crop=faces&q=80",
			Role:        "AI Assistant",
			IsPrimary:   true,
			IsDefault:   true,
			Category:    "Featured",
			Creator:     "Nexa Digital",
			ChatCount:   25000,
			Voice:       models.VoiceAlloy,
			Stats: &models.AssistantStats{
				Users:   25000,
				Rating:  4.9,
				Ratings: models.RatingBuckets{Five: 15000, Four: 7000, Three: 2000, Two: 800, One: 200},
			},
		},
		{
			ID:          "axel-eleven-001",
			Name:        "Axel Eleven Labs Expert",
			Description: "Asistente experto en Eleven Labs para la creación de audios",
			Avatar:      "https://images.unsplash.com/photo-1614741118887-7a4ee193a5fa?w=64&h=64&fit=crop&crop=faces&q=80",
			Role:        "Audio Expert",
			Category:    "Trending",
			Creator:     "Eleven Labs",
			ChatCount:   15000,
			Voice:       models.VoiceEcho,
			Stats: &models.AssistantStats{
				Users:   15000,
				Rating:  4.8,
				Ratings: models.RatingBuckets{Five: 9000, Four: 4000, Three: 1500, Two: 400, One: 100},
			},
		},
		{
			ID:          "amara-divi-001",
			Name:        "Amara Divi Expert",
			Description: "Soporte avanzado para Divi y WordPress",
			Avatar:      "https://images.unsplash.com/photo-1618477388954-7852f32655ec?w=64&h=64&fit=crop&crop=faces&q=80",
			Role:        "WordPress Expert",
			Category:    "Specialized",
			Creator:     "Elegant Themes",
			ChatCount:   10000,
			Voice:       models.VoiceNova,
			Stats: &models.AssistantStats{
				Users:   10000,
				Rating:  4.7,
				Ratings: models.RatingBuckets{Five: 6000, Four: 2500, Three: 1000, Two: 300, One: 200},
			},
		},
		{
			ID:          "salomon-lawyer-001",
			Name:        "Salomón Tico-Lawyer",
			Description: "Asesor legal especializado en leyes costarricenses",
			Avatar:      "https://images.unsplash.com/photo-1505664194779-8beaceb93744?w=64&h=64&fit=crop&crop=faces&q=80",
			Role:        "Legal Advisor",
			Category:    "Specialized",
			Creator:     "Legal Nexus",
			ChatCount:   8000,
			Voice:       models.VoiceOnyx,
			Stats: &models.AssistantStats{
				Users:   8000,
				Rating:  4.8,
				Ratings: models.RatingBuckets{Five: 5000, Four: 2000, Three: 700, Two: 200, One: 100},
			},
		},
		{
			ID:          "joe-biodiversity-001",
			Name:        "Joe, The Biodiversity Partner",
			Description: "Guía naturalista para la biodiversidad de Costa Rica",
			Avatar:      "https://images.unsplash.com/photo-1542662565-7e4b66bae529?w=64&h=64&fit=crop&crop=faces&q=80",
			Role:        "Nature Guide",
			Category:    "Trending",
			Creator:     "EcoTica",
			ChatCount:   12000,
			Voice:       models.VoiceAlloy,
			Stats: &models.AssistantStats{
				Users:   12000,
				Rating:  4.9,
				Ratings: models.RatingBuckets{Five: 8000, Four: 2500, Three: 1000, Two: 300, One: 200},
			},
		},
		{
			ID:          "kaleb-synthflow-001",
			Name:        "Kaleb Synthflow Expert",
			Description: "Asesor en la creación de asistentes de voz con Synthflow",
			Avatar:      "https://images.unsplash.com/photo-1583864697784-a0efc8379f70?w=64&h=64&fit=crop&crop=faces&q=80",
			Role:        "Voice AI Expert",
			Category:    "Specialized",
			Creator:     "Synthflow Labs",
			ChatCount:   5000,
			Voice:       models.VoiceEcho,
			Stats: &models.AssistantStats{
				Users:   5000,
				Rating:  4.7,
				Ratings: models.RatingBuckets{Five: 3000, Four: 1200, Three: 500, Two: 200, One: 100},
			},
		},
		{
			ID:          "theo-huggingface-001",
			Name:        "Theo Hugging Face Expert",
			Description: "Especialista en el uso de modelos de Hugging Face",
			Avatar:      "https://images.unsplash.com/photo-1618477247222-acbdb0e159b3?w=64&h=64&fit=crop&crop=faces&q=80",
			Role:        "ML Expert",
			Category:    "Trending",
			Creator:     "Hugging Face",
			ChatCount:   18000,
			Voice:       models.VoiceFable,
			Stats: &models.AssistantStats{
				Users:   18000,
				Rating:  4.8,
				Ratings: models.RatingBuckets{Five: 11000, Four: 4500, Three: 1500, Two: 600, One: 400},
			},
		},
		{
			ID:          "elliot-glif-001",
			Name:        "Elliot Glif APP Expert",
			Description: "Experto en Glif para el desarrollo de aplicaciones",
			Avatar:      "https://images.unsplash.com/photo-1573496359142-b8d87734a5a2?w=64&h=64&fit=crop&crop=faces&q=80",
			Role:        "App Developer",
			Category:    "Specialized",
			Creator:     "Glif Team",
			ChatCount:   7000,
			Voice:       models.VoiceShimmer,
			Stats: &models.AssistantStats{
				Users:   7000,
				Rating:  4.6,
				Ratings: models.RatingBuckets{Five: 4000, Four: 1800, Three: 800, Two: 300, One: 100},
			},
		},
		{
			ID:          "bolt-new-001",
			Name:        "Bolt New Expert",
			Description: "Soporte avanzado para la creación en Bolt.new",
			Avatar:      "https://images.unsplash.com/photo-1635107510862-53886e926b74?w=64&h=64&fit=crop&crop=faces&q=80",
			Role:        "Development Expert",
			Category:    "Featured",
			Creator:     "Bolt Team",
			ChatCount:   20000,
			Voice:       models.VoiceNova,
			Stats: &models.AssistantStats{
				Users:   20000,
				Rating:  4.9,
				Ratings: models.RatingBuckets{Five: 13000, Four: 4500, Three: 1500, Two: 600, One: 400},
			},
		},
		{
			ID:          "professor-sloth-001",
			Name:        "Professor Sloth",
			Description: "Embajador turístico que educa y conecta con Costa Rica",
			Avatar:      "https://images.unsplash.com/photo-1517849845537-4d257902454a?w=64&h=64&fit=crop&crop=faces&q=80",
			Role:        "Tourism Guide",
			Category:    "Featured",
			Creator:     "Tourism CR",
			ChatCount:   22000,
			Voice:       models.VoiceAlloy,
			Stats: &models.AssistantStats{
				Users:   22000,
				Rating:  4.9,
				Ratings: models.RatingBuckets{Five: 14000, Four: 5000, Three: 2000, Two: 700, One: 300},
			},
		},
	}
}
