package classifier

import "strings"

// Sentiments is the closed list of sentiment labels.
var Sentiments = []string{
	"ADMIRATION", "AMUSEMENT", "ANGER", "ANNOYANCE", "ANTICIPATION",
	"APPROVAL", "CARING", "CONCERN", "CONFUSION", "CURIOSITY",
	"DESIRE", "DISAPPOINTMENT", "DISAPPROVAL", "DISGUST", "EMBARRASSMENT",
	"EXCITEMENT", "FEAR", "GRATITUDE", "GRIEF", "HOPE",
	"INDIGNATION", "JOY", "LOVE", "NERVOUSNESS", "NEUTRAL",
	"OPTIMISM", "PESSIMISM", "PRIDE", "REALIZATION", "RELIEF",
	"REMORSE", "SADNESS", "SKEPTICISM", "SURPRISE", "TRUST",
}

// IdeologyGroups arranges the ideology labels by family. Labels use
// underscores; prompts show them with hyphens.
var IdeologyGroups = []struct {
	Name   string
	Labels []string
}{
	{"NATIONAL_STANCES", []string{
		"NATIONALISM", "GLOBALISM", "PATRIOTISM", "ISOLATIONISM",
		"INTERVENTIONISM", "SOVEREIGNTISM", "REGIONALISM",
	}},
	{"GEOPOLITICAL_ALIGNMENTS", []string{
		"ATLANTICISM", "EUROPEANISM", "EUROSCEPTICISM", "PAN_AFRICANISM",
		"PAN_ARABISM", "ZIONISM", "ANTI_IMPERIALISM", "MULTIPOLARISM",
	}},
	{"POLITICAL_SPECTRUM", []string{
		"FAR_LEFT", "LEFT", "CENTER_LEFT", "CENTRISM", "CENTER_RIGHT",
		"RIGHT", "FAR_RIGHT", "LIBERALISM", "CONSERVATISM", "PROGRESSIVISM",
		"POPULISM", "LIBERTARIANISM",
	}},
	{"ECONOMIC_ORIENTATIONS", []string{
		"CAPITALISM", "SOCIALISM", "COMMUNISM", "NEOLIBERALISM",
		"KEYNESIANISM", "PROTECTIONISM", "FREE_TRADE", "SOCIAL_DEMOCRACY",
	}},
	{"SOCIAL_MOVEMENTS", []string{
		"FEMINISM", "ENVIRONMENTALISM", "PACIFISM", "MULTICULTURALISM",
		"TRADITIONALISM", "ANTI_GLOBALIZATION", "HUMAN_RIGHTS_ADVOCACY",
	}},
	{"PHILOSOPHICAL", []string{
		"HUMANISM", "UTILITARIANISM", "REALISM", "IDEALISM", "PRAGMATISM",
		"EXISTENTIALISM", "INDIVIDUALISM", "COLLECTIVISM",
	}},
	{"EPISTEMOLOGICAL", []string{
		"RATIONALISM", "EMPIRICISM", "SCIENTISM", "SKEPTICISM", "RELATIVISM",
	}},
	{"RELIGIOUS", []string{
		"SECULARISM", "CHRISTIAN_DEMOCRACY", "ISLAMISM", "RELIGIOUS_CONSERVATISM",
		"LAICISM", "THEOCRACY",
	}},
	{"POLITICAL_SYSTEMS", []string{
		"DEMOCRACY", "AUTHORITARIANISM", "TOTALITARIANISM", "MONARCHISM",
		"REPUBLICANISM", "FEDERALISM", "ANARCHISM", "TECHNOCRACY",
	}},
	{"NEUTRAL", []string{
		"NON_IDEOLOGICAL", "NON_POLITICAL", "NON_PARTISAN", "UNBIASED",
	}},
}

// Ideologies is the flattened ideology list.
var Ideologies = func() []string {
	var all []string
	for _, g := range IdeologyGroups {
		all = append(all, g.Labels...)
	}
	return all
}()

// IdeologyGroup returns the family name of an ideology label.
func IdeologyGroup(label string) (string, bool) {
	for _, g := range IdeologyGroups {
		for _, l := range g.Labels {
			if l == label {
				return g.Name, true
			}
		}
	}
	return "", false
}

func hyphenated(labels []string) string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = strings.ReplaceAll(l, "_", "-")
	}
	return strings.Join(out, ", ")
}
