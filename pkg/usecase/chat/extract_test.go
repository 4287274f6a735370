package chat

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{
			name:  "bare object",
			input: `{"a":1}`,
			want:  `{"a":1}`,
			found: true,
		},
		{
			name:  "wrapped in prose",
			input: "Voici l'analyse :\n{\"a\":1}\nVoilà.",
			want:  `{"a":1}`,
			found: true,
		},
		{
			name:  "nested braces",
			input: `réponse {"a":{"b":2},"c":3} fin`,
			want:  `{"a":{"b":2},"c":3}`,
			found: true,
		},
		{
			name:  "braces inside string literal",
			input: `{"a":"valeur } piégée","b":1}`,
			want:  `{"a":"valeur } piégée","b":1}`,
			found: true,
		},
		{
			name:  "escaped quote inside string",
			input: `{"a":"dire \" ceci","b":2}`,
			want:  `{"a":"dire \" ceci","b":2}`,
			found: true,
		},
		{
			name:  "unbalanced",
			input: `{"a":1`,
			found: false,
		},
		{
			name:  "no object",
			input: "aucun JSON ici",
			found: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractJSONObject(tc.input)
			gt.Equal(t, ok, tc.found)
			if tc.found {
				gt.Equal(t, got, tc.want)
			}
		})
	}
}

func TestExtractPlotCode(t *testing.T) {
	reply := "Voici le code :\n```python\nimport matplotlib.pyplot as plt\nplt.plot([1,2],[3,4])\nplt.show()\n```\n"
	code, ok := extractPlotCode(reply)
	gt.True(t, ok)
	gt.S(t, code).Contains("plt.plot([1,2],[3,4])")
	gt.S(t, code).Contains("plt.show()")

	_, ok = extractPlotCode("Aucun code ici.")
	gt.True(t, !ok)
}
