package risk

type advice struct {
	message string
	recs    []string
}

func (a advice) recommendations() []string {
	out := make([]string, len(a.recs))
	copy(out, a.recs)
	return out
}

var (
	noRainAdvice = advice{
		message: "No se reporta lluvia en este momento. Mantente informado.",
		recs: []string{
			"Mantente informado con autoridades locales.",
			"Sigue monitoreando las condiciones climáticas.",
		},
	}

	lowAdvice = advice{
		message: "Riesgo bajo. Mantente informado.",
		recs: []string{
			"Sigue monitoreando las condiciones climáticas.",
			"Mantente informado con autoridades locales.",
		},
	}

	moderateAdvice = advice{
		message: "Riesgo moderado. Mantente alerta.",
		recs: []string{
			"Evita transitar por calles con acumulación de agua.",
			"Revisa que las coladeras estén despejadas.",
			"Ten a la mano documentos importantes en lugar seguro.",
		},
	}

	highAdvice = advice{
		message: "¡Riesgo alto! Toma precauciones.",
		recs: []string{
			"Evita salir si no es necesario.",
			"Ten a la mano documentos importantes en lugar seguro.",
			"Verifica que las salidas de emergencia estén despejadas.",
		},
	}

	veryHighAdvice = advice{
		message: "¡Riesgo muy alto! Resguárdate en un lugar seguro.",
		recs: []string{
			"Permanece en un lugar seguro y elevado.",
			"No salgas bajo ninguna circunstancia.",
			"Contacta a las autoridades si el agua entra a tu vivienda.",
		},
	}
)

func adviceFor(risk int) advice {
	switch {
	case risk <= 2:
		return lowAdvice
	case risk == 3:
		return moderateAdvice
	case risk == 4:
		return highAdvice
	default:
		return veryHighAdvice
	}
}

// Contact is a phone number or account users can reach during a flood.
type Contact struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
}

// EmergencyContacts lists phone numbers returned with every prediction.
func EmergencyContacts() []Contact {
	return []Contact{
		{Name: "911", Detail: "Llama al 911 en caso de emergencia."},
		{Name: "Protección Civil CDMX", Detail: "55 56 83 17 17"},
	}
}

// SocialAccounts lists official accounts that publish weather alerts.
func SocialAccounts() []Contact {
	return []Contact{
		{Name: "CONAGUA", Detail: "@conagua_clima"},
		{Name: "Protección Civil CDMX", Detail: "@PC_CDMX"},
	}
}
