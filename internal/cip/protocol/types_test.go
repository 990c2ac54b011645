package protocol

import "testing"

func TestCIPTypeNameAndCode(t *testing.T) {
	cases := []struct {
		code CIPDataType
		name string
	}{
		{CIPTypeBOOL, "BOOL"},
		{CIPTypeSINT, "SINT"},
		{CIPTypeINT, "INT"},
		{CIPTypeDINT, "DINT"},
		{CIPTypeLINT, "LINT"},
		{CIPTypeREAL, "REAL"},
		{CIPTypeLREAL, "LREAL"},
		{CIPTypeSTR, "STRING"},
		{CIPTypeStruct, "STRUCT"},
	}
	for _, tc := range cases {
		if got := CIPTypeName(tc.code); got != tc.name {
			t.Fatalf("CIPTypeName(%v) = %s, want %s", tc.code, got, tc.name)
		}
		if got := CIPTypeCode(tc.name); got != tc.code {
			t.Fatalf("CIPTypeCode(%s) = %v, want %v", tc.name, got, tc.code)
		}
	}
	if got := CIPTypeName(0x9999); got != "UNKNOWN(0x9999)" {
		t.Fatalf("CIPTypeName(0x9999) = %s, want UNKNOWN(0x9999)", got)
	}
	if got := CIPTypeCode("UNKNOWN"); got != CIPTypeDINT {
		t.Fatalf("CIPTypeCode(UNKNOWN) = %v, want %v", got, CIPTypeDINT)
	}
}

func TestParseCIPDataType(t *testing.T) {
	tests := []struct {
		in      string
		want    CIPDataType
		wantErr bool
	}{
		{"0xC4", CIPTypeDINT, false},
		{"real", CIPTypeREAL, false},
		{" STRING ", CIPTypeSTR, false},
		{"", 0, true},
		{"widget", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseCIPDataType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseCIPDataType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseCIPDataType(%q) = 0x%04X, want 0x%04X", tt.in, uint16(got), uint16(tt.want))
		}
	}
}
