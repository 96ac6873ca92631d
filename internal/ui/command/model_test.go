package command

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr bool
	}{
		{"refresh", Command{Name: Refresh}, false},
		{"  R ", Command{Name: Refresh}, false},
		{"folder Chennai City", Command{Name: Folder, Arg: "Chennai City"}, false},
		{"cd f-2", Command{Name: Folder, Arg: "f-2"}, false},
		{"folder", Command{}, true},
		{"email", Command{Name: Mail}, false},
		{"p", Command{Name: Preview}, false},
		{"q", Command{Name: Quit}, false},
		{"", Command{}, true},
		{"delete everything", Command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
