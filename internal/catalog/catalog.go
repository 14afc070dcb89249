// Package catalog holds the agency's service offering in both site languages.
package catalog

import "github.com/ngeni/portal/internal/domain/lead"

type Text struct {
	Name  string `json:"name"`
	Pitch string `json:"pitch"`
}

type Service struct {
	Key string `json:"key"`
	FR  Text   `json:"fr"`
	EN  Text   `json:"en"`
}

// In returns the text for locale, falling back to French.
func (s Service) In(locale string) Text {
	if locale == "en" {
		return s.EN
	}
	return s.FR
}

var services = map[string]Service{
	"rpa": {
		Key: "rpa",
		FR:  Text{"RPA & Automatisation", "Nos robots logiciels automatisent vos processus répétitifs. Économies jusqu'à 70 %, zéro erreur humaine."},
		EN:  Text{"RPA & Automation", "Software robots automate repetitive tasks. Up to 70% savings, zero human error."},
	},
	"agents": {
		Key: "agents",
		FR:  Text{"Agents IA Autonomes", "Des agents IA qui décident et agissent de façon autonome 24h/24. Scalables à l'infini."},
		EN:  Text{"Autonomous AI Agents", "AI agents that decide and act autonomously 24/7. Infinitely scalable."},
	},
	"saas": {
		Key: "saas",
		FR:  Text{"Développement SaaS", "De l'idée au SaaS scalable : cloud, sécurité, paiements, analytics, tout inclus."},
		EN:  Text{"SaaS Development", "From idea to scalable SaaS: cloud, security, payments, analytics, all included."},
	},
	"web": {
		Key: "web",
		FR:  Text{"Web & Mobile Premium", "Applications web et mobiles hautes performances, UI/UX de classe mondiale, 100 % responsive."},
		EN:  Text{"Premium Web & Mobile", "High-performance web & mobile apps, world-class UI/UX, 100% responsive."},
	},
	"medical": {
		Key: "medical",
		FR:  Text{"Solutions Médicales IA", "Diagnostic IA, dossiers patients intelligents, télémédecine au service de la santé."},
		EN:  Text{"AI Medical Solutions", "AI diagnostics, smart patient records, telemedicine for healthcare."},
	},
	"agriculture": {
		Key: "agriculture",
		FR:  Text{"AgriTech Intelligente", "IoT, analyse prédictive des cultures, gestion des ressources pour maximiser vos rendements."},
		EN:  Text{"Smart AgriTech", "IoT sensors, crop predictive analytics and resource management to maximize yields."},
	},
	"education": {
		Key: "education",
		FR:  Text{"EdTech IA", "Plateformes adaptatives, tuteurs IA personnalisés, analytics pédagogiques."},
		EN:  Text{"AI EdTech", "Adaptive learning platforms, AI tutors, educational analytics."},
	},
	"energy": {
		Key: "energy",
		FR:  Text{"Énergie & Smart Grid", "Gestion intelligente de l'énergie, prédiction de consommation, optimisation du réseau électrique."},
		EN:  Text{"Energy & Smart Grid", "Smart energy management, consumption prediction, grid optimization."},
	},
	"construction": {
		Key: "construction",
		FR:  Text{"Construction Intelligente", "BIM augmenté, suivi de chantier IA, détection de risques, logistique optimisée."},
		EN:  Text{"Smart Construction", "Enhanced BIM, AI site monitoring, risk detection, optimized logistics."},
	},
	"consulting": {
		Key: "consulting",
		FR:  Text{"Consulting IA Stratégique", "Audit IA, roadmap de transformation digitale, accompagnement par nos experts certifiés."},
		EN:  Text{"Strategic AI Consulting", "AI audit, digital transformation roadmap, guidance from certified experts."},
	},
}

// All returns the services in catalogue order.
func All() []Service {
	out := make([]Service, 0, len(lead.ServiceKeys))
	for _, k := range lead.ServiceKeys {
		out = append(out, services[k])
	}
	return out
}

func Lookup(key string) (Service, bool) {
	s, ok := services[key]
	return s, ok
}
