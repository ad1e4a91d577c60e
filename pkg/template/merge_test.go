package template

import "testing"

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		vars map[string]string
		want string
	}{
		{
			name: "substitutes known variables",
			tmpl: "Hi {{first_name}}, check out {{outlet}}",
			vars: map[string]string{"first_name": "Maya", "outlet": "Monthly Spin"},
			want: "Hi Maya, check out Monthly Spin",
		},
		{
			name: "absent variable becomes empty string",
			tmpl: "Hi {{first_name}}{{unknown}}!",
			vars: map[string]string{"first_name": "Maya"},
			want: "Hi Maya!",
		},
		{
			name: "repeated placeholder",
			tmpl: "{{name}} and {{name}}",
			vars: map[string]string{"name": "Jo"},
			want: "Jo and Jo",
		},
		{
			name: "malformed open brace is left untouched",
			tmpl: "Hi {{first_name, welcome",
			vars: map[string]string{"first_name": "Maya"},
			want: "Hi {{first_name, welcome",
		},
		{
			name: "placeholder with space is not a placeholder",
			tmpl: "Hi {{first name}}",
			vars: map[string]string{"first name": "Maya"},
			want: "Hi {{first name}}",
		},
		{
			name: "empty template",
			tmpl: "",
			vars: map[string]string{"first_name": "Maya"},
			want: "",
		},
		{
			name: "nil vars",
			tmpl: "Hi {{first_name}}",
			vars: nil,
			want: "Hi ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Merge(tt.tmpl, tt.vars); got != tt.want {
				t.Fatalf("Merge(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}
