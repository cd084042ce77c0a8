package models

import "testing"

func testTeam() *Team {
	return &Team{ID: 1, Name: "Hawks", Players: []Player{
		{Name: "Ada Guard", Position: "PG", Salary: 20_000_000},
		{Name: "Ben Wing", Position: "sg/sf", Salary: 10_000_000},
		{Name: "Cal Big", Position: "C", Salary: 5_500_000},
		{Name: "Dee Flex", Position: "G-F", Salary: 1},
	}}
}

func TestTeam_TotalSalary(t *testing.T) {
	if got := testTeam().TotalSalary(); got != 35_500_001 {
		t.Errorf("TotalSalary = %d", got)
	}
	if got := (&Team{}).TotalSalary(); got != 0 {
		t.Errorf("empty TotalSalary = %d", got)
	}
}

func TestTeam_PositionCounts(t *testing.T) {
	counts := testTeam().PositionCounts()
	want := map[string]int{"PG": 1, "SG": 1, "SF": 1, "PF": 0, "C": 1}
	for pos, n := range want {
		if counts[pos] != n {
			t.Errorf("counts[%s] = %d, want %d", pos, counts[pos], n)
		}
	}
	if _, ok := counts["G"]; ok {
		t.Error("unknown positions must not be counted")
	}
}

func TestTeam_FindPlayer(t *testing.T) {
	team := testTeam()
	tests := []struct {
		name  string
		query string
		found bool
	}{
		{"exact", "Cal Big", true},
		{"case and spaces", "  ada guard ", true},
		{"missing", "Zed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := team.FindPlayer(tt.query)
			if (p != nil) != tt.found {
				t.Fatalf("FindPlayer(%q) = %v", tt.query, p)
			}
		})
	}

	team.FindPlayer("Cal Big").Salary = 1
	if team.Players[2].Salary != 1 {
		t.Error("FindPlayer should return a pointer into the roster")
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		v    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12_500_000, "12,500,000"},
		{140_588_000, "140,588,000"},
		{-2_500_000, "-2,500,000"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.v); got != tt.want {
			t.Errorf("FormatMoney(%d) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
