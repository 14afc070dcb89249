package concierge

// text holds every line the concierge can say, per locale.
type text struct {
	greetGuest      string
	greetMember     string // %s first name
	discover        string
	quote           string
	expert          string
	myProjects      string
	contactTeam     string
	serviceList     string
	interested      string
	otherServices   string
	askName         string
	askEmail        string // %s first name
	askService      string
	askMessage      string
	chosenService   string // %s service name
	done            string // %s first name, %s email
	exploreServices string
	noProjects      string
	projects        string // %d count
	forwarding      string
	stillLearning   string
	nameTooShort    string
	badEmail        string
	messageTooShort string // %d length
}

var texts = map[Locale]text{
	French: {
		greetGuest:      "Bonjour ! 👋 Je suis **WBOX**, le concierge IA de **NGENI**.\n\nNous créons des solutions IA sur-mesure pour transformer votre entreprise. Comment puis-je vous aider ?",
		greetMember:     "Bonjour **%s** ! 👋 Je suis **WBOX**, votre concierge IA.\n\nComment puis-je vous aider aujourd'hui ?",
		discover:        "🚀 Découvrir nos services",
		quote:           "💰 Obtenir un devis",
		expert:          "💬 Parler à un expert",
		myProjects:      "📊 Avancement de mes projets",
		contactTeam:     "💬 Contacter l'équipe",
		serviceList:     "Voici nos **10 solutions IA** spécialisées. Laquelle vous intéresse ?",
		interested:      "✅ Je suis intéressé(e)",
		otherServices:   "← Autres services",
		askName:         "Parfait ! 🎯 Pour vous proposer une solution sur-mesure, j'ai besoin de quelques informations.\n\n**Quel est votre nom complet ?**",
		askEmail:        "Merci **%s** ! 😊\n\n**Quelle est votre adresse email ?**",
		askService:      "**Quel service vous intéresse ?**",
		askMessage:      "**Décrivez votre projet ou besoin** (min. 20 caractères) :",
		chosenService:   "**%s**, excellent choix !\n\n**Décrivez brièvement votre projet** (min. 20 caractères) :",
		done:            "✅ **Message bien reçu !**\n\nMerci **%s**, notre équipe analysera votre demande et vous contactera sous **24h** à l'adresse **%s**.\n\nÀ très bientôt ! 🚀",
		exploreServices: "🔧 Voir nos services",
		noProjects:      "Vous n'avez pas encore de projets actifs. Notre équipe prépare votre espace ! 🚧",
		projects:        "Voici l'état de vos **%d projet(s)** :",
		forwarding:      "Je transmets votre demande à notre équipe. Puis-je vous aider autrement ?",
		stillLearning:   "Je suis encore en apprentissage pour cette requête. Notre équipe peut vous aider directement !",
		nameTooShort:    "Nom trop court",
		badEmail:        "Email invalide",
		messageTooShort: "Trop court (%d/20 caractères min)",
	},
	English: {
		greetGuest:      "Hello! 👋 I'm **WBOX**, **NGENI**'s AI concierge.\n\nWe build custom AI solutions to transform your business. How can I help?",
		greetMember:     "Hello **%s**! 👋 I'm **WBOX**, your AI concierge.\n\nHow can I help you today?",
		discover:        "🚀 Discover our services",
		quote:           "💰 Get a quote",
		expert:          "💬 Talk to an expert",
		myProjects:      "📊 My project status",
		contactTeam:     "💬 Contact team",
		serviceList:     "Here are our **10 specialized AI solutions**. Which one interests you?",
		interested:      "✅ I'm interested",
		otherServices:   "← Other services",
		askName:         "Perfect! 🎯 To prepare a custom proposal, I need a few details.\n\n**What is your full name?**",
		askEmail:        "Thank you **%s**! 😊\n\n**What is your email address?**",
		askService:      "**Which service are you interested in?**",
		askMessage:      "**Describe your project or need** (min. 20 chars):",
		chosenService:   "**%s**, excellent choice!\n\n**Briefly describe your project** (min. 20 chars):",
		done:            "✅ **Message received!**\n\nThank you **%s**, our team will review your request and reach out within **24h** at **%s**.\n\nSee you soon! 🚀",
		exploreServices: "🔧 Explore services",
		noProjects:      "No active projects yet. Our team is preparing your space! 🚧",
		projects:        "Here's your **%d project(s)** status:",
		forwarding:      "Forwarding your request to our team. Can I help with anything else?",
		stillLearning:   "Still learning for this specific query. Our team can help directly!",
		nameTooShort:    "Name too short",
		badEmail:        "Invalid email",
		messageTooShort: "Too short (%d/20 chars min)",
	},
}

func textFor(l Locale) text {
	if t, ok := texts[l]; ok {
		return t
	}
	return texts[French]
}
