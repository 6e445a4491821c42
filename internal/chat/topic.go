package chat

import "strings"

// Topic classifies a conversation by the government service it concerns.
// It is inferred from the page context, stored with the history entry and
// used to steer the assistant's focus.
type Topic string

const (
	TopicRG         Topic = "rg"
	TopicCPF        Topic = "cpf"
	TopicCNH        Topic = "cnh"
	TopicBeneficios Topic = "beneficios"
	TopicGeral      Topic = "geral"
)

// InferTopic maps the free-form page context to a topic. Matching is by
// substring so "assistente/rg" and "duvidas sobre RG" both land on rg.
func InferTopic(context string) Topic {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "rg"):
		return TopicRG
	case strings.Contains(c, "cpf"):
		return TopicCPF
	case strings.Contains(c, "cnh"):
		return TopicCNH
	case strings.Contains(c, "benef"):
		return TopicBeneficios
	default:
		return TopicGeral
	}
}

// StyleHint returns the steering line appended to the system prompt for
// the topic.
func (t Topic) StyleHint() string {
	switch t {
	case TopicBeneficios:
		return "Foque em INSS e benefícios sociais."
	case TopicCNH:
		return "Foque em DETRAN e CNH."
	case TopicCPF:
		return "Foque em Receita Federal."
	case TopicRG:
		return "Foque em RG e órgãos estaduais."
	default:
		return "Foque em orientação prática e clara."
	}
}
