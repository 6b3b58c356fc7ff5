package img2glyph

import "testing"

func TestParseFlag(t *testing.T) {
	tests := []struct {
		name string
		want Flag
	}{
		{"000_space.png", Flag{Kind: FlagDefault}},
		{"017_q_false.png", Flag{Kind: FlagRejected}},
		{"018_i_dont_move_x.png", Flag{Kind: FlagNoHorizontalMove}},
		{"019_dot_dont_move.png", Flag{Kind: FlagNoMove}},
		{"020_o_dont_spin.png", Flag{Kind: FlagNoRotate}},
		{"021_filling.png", Flag{Kind: FlagFillerSolo}},
		{"300_filling_01.png", FillerLayer(300)},
		{"007_filling_12.png", FillerLayer(7)},
		// a layered name needs the three digit prefix at the start
		{"a300_filling_01.png", Flag{Kind: FlagFillerSolo}},
		// rejection wins over every other marker
		{"300_filling_01_false.png", Flag{Kind: FlagRejected}},
		{"022_x_dont_move_x_dont_spin.png", Flag{Kind: FlagNoHorizontalMove}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFlag(tt.name); got != tt.want {
				t.Errorf("ParseFlag(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestFlagIsFiller(t *testing.T) {
	if !FillerLayer(3).IsFiller() || !(Flag{Kind: FlagFillerSolo}).IsFiller() {
		t.Error("Filler flags should report IsFiller")
	}
	if (Flag{Kind: FlagNoMove}).IsFiller() {
		t.Error("NoMove is not a filler")
	}
	if got := FillerLayer(3).String(); got != "filling_layer(003)" {
		t.Errorf("Unexpected String(): %s", got)
	}
}
