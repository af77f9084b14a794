package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		keepAccents bool
		want        string
	}{
		{
			name:        "strips markup with space separators",
			in:          "<p>Hola</p><p>Mundo</p>",
			keepAccents: true,
			want:        "hola mundo",
		},
		{
			name:        "drops script and style content",
			in:          "<style>p{color:red}</style><p>Hola</p><script>alert('x')</script>",
			keepAccents: true,
			want:        "hola",
		},
		{
			name:        "removes x000d artifact",
			in:          "primera linea_x000d_\nsegunda",
			keepAccents: true,
			want:        "primera lineasegunda",
		},
		{
			name:        "keeps accents when configured",
			in:          "<b>¿Cómo solicito el carné?</b>",
			keepAccents: true,
			want:        "cómo solicito el carné?",
		},
		{
			name:        "strips accents when configured",
			in:          "¿Cómo solicito el carné?",
			keepAccents: false,
			want:        "c mo solicito el carn ?",
		},
		{
			name:        "keeps basic punctuation",
			in:          "Si, claro. ¡Por supuesto! ¿Vale?",
			keepAccents: false,
			want:        "si, claro. por supuesto! vale?",
		},
		{
			name:        "collapses whitespace and trims",
			in:          "  HOLA \t\n  mundo  ",
			keepAccents: true,
			want:        "hola mundo",
		},
		{
			name:        "decodes entities before filtering",
			in:          "uno&nbsp;&amp;&nbsp;dos",
			keepAccents: true,
			want:        "uno dos",
		},
		{
			name:        "empty input",
			in:          "",
			keepAccents: true,
			want:        "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, tt.keepAccents))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"<div><p>¿Cómo RENOVAR  el carné?</p>_x000d_\n<b>Respuesta</b></div>",
		"texto plano sin marcado",
		"  MAYÚSCULAS y   espacios\t\n",
		"<script>var x = 1;</script>visible &amp; claro",
	}

	for _, keepAccents := range []bool{true, false} {
		for _, in := range inputs {
			once := Normalize(in, keepAccents)
			twice := Normalize(once, keepAccents)
			assert.Equal(t, once, twice, "input %q keepAccents=%v", in, keepAccents)
		}
	}
}

func TestStripArtifacts(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"artifact with newline", "Primera línea_x000D_\nSegunda línea", "Primera líneaSegunda línea"},
		{"lowercase artifact", "uno_x000d_dos", "unodos"},
		{"markup preserved", "<p>Hola <b>Mundo</b></p>", "<p>Hola <b>Mundo</b></p>"},
		{"clean text untouched", "sin artefactos", "sin artefactos"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripArtifacts(tc.in))
		})
	}
}
