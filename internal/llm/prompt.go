package llm

import "fmt"

// systemPrompt enumerates the context types and pins the reply format
const systemPrompt = `You are an expert in organizational context analysis. You read a short text describing a project or a professional activity and determine EVERY relevant way the work is organized, with priorities.

Available context types:
- CLIENT_BASED: organized by clients, accounts or patients (consultants, doctors, sales)
- TEMPORAL: organized by time cycles (sprints, campaigns, schedules)
- PHASED: organized by sequential phases (construction, migration, certification)
- VERSIONED: organized by versions or iterations (development, design, product)
- PROCESS_BASED: organized by business process (sales, recruitment, support)
- RESOURCE_BASED: organized by resources or teams (agency, consulting, multi-site)
- GENERIC: none of the above clearly applies

Real projects often combine several contexts (an IT consultant is CLIENT_BASED + TEMPORAL + RESOURCE_BASED).

Reply ONLY with valid JSON in exactly this format:
{
  "primaryType": "MAIN_TYPE",
  "confidence": 85,
  "reasoning": "Clear explanation",
  "isHybrid": true,
  "secondaryType": "SECONDARY_TYPE",
  "detectedContexts": [
    {
      "type": "CLIENT_BASED",
      "confidence": 85,
      "weight": 1.0,
      "reasoning": "Strong presence of client keywords",
      "priority": "primary"
    },
    {
      "type": "TEMPORAL",
      "confidence": 65,
      "weight": 0.6,
      "reasoning": "Mentions of cycles and sprints",
      "priority": "medium"
    }
  ],
  "suggestedStructure": ["Column 1", "Column 2", "Column 3", "Column 4"]
}`

// SystemPrompt returns the system prompt sent with every analysis
func SystemPrompt() string {
	return systemPrompt
}

// BuildPrompt embeds text in the analysis instructions
func BuildPrompt(text string) string {
	return fmt.Sprintf(`Analyze this text and determine ALL relevant organizational contexts with their priorities:

%q

Instructions:
1. Identify the MAIN context (priority: "primary", weight: 1.0)
2. Find every significant SECONDARY context (weight between 0.3 and 0.8)
3. Assign priorities: "primary", "strong", "medium", "weak"
4. Think like an IT consultant: projects often mix CLIENT + TEMPORAL + RESOURCE
5. Provide a 4-column board structure combining the detected contexts, with column names in the language of the text

Real examples:
- "Mission chez ClientX en sprints" = CLIENT_BASED (primary) + TEMPORAL (medium)
- "Migration par phases avec équipe dédiée" = PHASED (primary) + RESOURCE_BASED (strong)
- "Dev produit v1/v2 en équipe agile" = VERSIONED (primary) + TEMPORAL (medium) + RESOURCE_BASED (weak)`, text)
}
