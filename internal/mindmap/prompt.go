package mindmap

import "fmt"

const promptTemplate = `Com base no seguinte texto, extraia o conceito principal, e para ele, extraia os 3 conceitos mais importantes e, para cada um desses 3, extraia 2 sub-conceitos relevantes.
Para cada conceito (principal, sub-conceitos de nível 1 e sub-conceitos de nível 2), forneça um "node" (o nome do conceito) e um "relevance_score" (de 0.1 a 1.0, onde 1.0 é mais relevante).
Sua resposta DEVE ser APENAS o objeto JSON. Não inclua texto introdutório, conclusivo, explicações ou qualquer formatação além do JSON puro.

Exemplo de formato JSON (apenas a estrutura, sem os dados de exemplo):
{
  "node": "Conceito Principal Extraído",
  "relevance_score": 0.9,
  "children": [
    {
      "node": "Conceito Chave 1 Extraído",
      "relevance_score": 0.7,
      "children": [
        {"node": "Sub-conceito 1.1 Extraído", "relevance_score": 0.6},
        {"node": "Sub-conceito 1.2 Extraído", "relevance_score": 0.5}
      ]
    }
  ]
}

Texto:
%s
`

// BuildPrompt returns the extraction prompt for content.
func BuildPrompt(content string) string {
	return fmt.Sprintf(promptTemplate, content)
}
