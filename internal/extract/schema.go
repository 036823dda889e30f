package extract

import "github.com/finsight-group/finrag-cli/internal/model"

// entitySpec defines how one entity type is retrieved and extracted: the
// retrieval query template, the JSON schema the model must fill, and
// few-shot examples steering the output format.
type entitySpec struct {
	Description string
	QueryFormat string // fmt verbs: company, year
	Schema      string
	Examples    []examplePair
}

// examplePair is one few-shot (document excerpt, correct JSON) example.
type examplePair struct {
	DocumentExcerpts string
	JSONOutput       string
}

var entitySpecs = map[model.EntityType]entitySpec{
	model.EntityRevenue: {
		Description: "Total income from goods sold or services.",
		QueryFormat: "What is the total revenue for %s in %s?",
		Schema: `{
  "title": "RevenueEntity",
  "type": "object",
  "properties": {
    "revenue": {
      "type": "number",
      "description": "Total income from goods sold or services provided."
    },
    "revenue_reasoning": {
      "type": "string",
      "description": "Text from the document used to infer the revenue value."
    },
    "revenue_unit": {
      "type": "string",
      "description": "Unit of revenue using ISO alphabetic code."
    },
    "revenue_unit_reasoning": {
      "type": "string",
      "description": "Text used to infer the revenue unit."
    }
  },
  "required": ["revenue", "revenue_reasoning", "revenue_unit", "revenue_unit_reasoning"]
}`,
		Examples: []examplePair{
			{
				DocumentExcerpts: "Page 20 - After the 10% increase in the number of customers, the sales for Company Inc in 2019 was $324,483 million.",
				JSONOutput: `{
  "revenue": 324483000000,
  "revenue_reasoning": "The sales for Company Inc in 2019 was $324,483 million.",
  "revenue_unit": "USD",
  "revenue_unit_reasoning": "The financial report is in US dollars as stated on page 20."
}`,
			},
		},
	},
	model.EntityRisks: {
		Description: "Summary of risks.",
		QueryFormat: "What are the main risks for %s in %s?",
		Schema: `{
  "title": "RisksEntity",
  "type": "object",
  "properties": {
    "risks": {
      "type": "string",
      "description": "Summary of risks."
    },
    "risks_reasoning": {
      "type": "string",
      "description": "Text used to infer the risks."
    }
  },
  "required": ["risks", "risks_reasoning"]
}`,
		Examples: []examplePair{
			{
				DocumentExcerpts: "Competition continues to intensify, including with the development of new business models and the entry of new and well-funded competitors.",
				JSONOutput: `{
  "risks": "The main risks are: \n* Competition from new entrants\n* Increased competition because of new technologies",
  "risks_reasoning": "Competition continues to intensify, including the development of new business models."
}`,
			},
		},
	},
	model.EntityHumanCapital: {
		Description: "Total number of employees.",
		QueryFormat: "What is the total number of employees for %s in %s?",
		Schema: `{
  "title": "HumanCapitalEntity",
  "type": "object",
  "properties": {
    "human_capital": {
      "type": "integer",
      "description": "Total number of employees."
    },
    "human_capital_reasoning": {
      "type": "string",
      "description": "Text used to infer the human capital."
    }
  },
  "required": ["human_capital", "human_capital_reasoning"]
}`,
		Examples: []examplePair{
			{
				DocumentExcerpts: "Despite the COVID-19 pandemic, In 2019, Company Inc employed 349,329 employees worldwide.",
				JSONOutput: `{
  "human_capital": 349329,
  "human_capital_reasoning": "In 2019, Company Inc employed 349,329 employees worldwide."
}`,
			},
		},
	},
}
