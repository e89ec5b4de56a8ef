package protocol

import "testing"

func TestPGNFromComponents(t *testing.T) {
	tests := []struct {
		name        string
		dataPage    byte
		pduFormat   byte
		pduSpecific byte
		want        uint32
	}{
		{
			name:      "PDU1 excludes the specific byte",
			dataPage:  0, pduFormat: 0xEA, pduSpecific: 0x22,
			want: 59904,
		},
		{
			name:     "PDU2 includes the specific byte",
			dataPage: 1, pduFormat: 0xF8, pduSpecific: 0x02,
			want: 129026,
		},
		{
			name:     "boundary format 240 is PDU2",
			dataPage: 0, pduFormat: 0xF0, pduSpecific: 0x05,
			want: 0xF005,
		},
		{
			name:     "format 239 is PDU1",
			dataPage: 0, pduFormat: 0xEF, pduSpecific: 0x05,
			want: 0xEF00,
		},
		{
			name:     "data page reserved bits dropped",
			dataPage: 0xFD, pduFormat: 0xF8, pduSpecific: 0x02,
			want: PGNFromComponents(1, 0xF8, 0x02),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PGNFromComponents(tt.dataPage, tt.pduFormat, tt.pduSpecific)
			if got != tt.want {
				t.Errorf("PGNFromComponents() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPGNComponentsRoundTrip(t *testing.T) {
	pgns := []uint32{59904, 60928, 126208, 126996, 129026, 129029, 130816, MaxPGN}

	for _, pgn := range pgns {
		dp, pduf, pdus := PGNComponents(pgn)
		got := PGNFromComponents(dp, pduf, pdus)

		want := pgn
		if IsAddressed(pduf) {
			// PDU1 groups have a zero low byte by definition.
			want = pgn &^ 0xFF
		}
		if got != want {
			t.Errorf("PGN %d: components round trip = %d, want %d", pgn, got, want)
		}
	}
}

func TestIsAddressed(t *testing.T) {
	if !IsAddressed(0xEA) {
		t.Error("IsAddressed(0xEA) = false, want true")
	}
	if IsAddressed(0xF0) {
		t.Error("IsAddressed(0xF0) = true, want false")
	}
}

func TestDestinationFor(t *testing.T) {
	if got := destinationFor(0xEA, 0x22); got != 0x22 {
		t.Errorf("destinationFor(PDU1) = 0x%02x, want 0x22", got)
	}
	if got := destinationFor(0xF8, 0x02); got != AddressGlobal {
		t.Errorf("destinationFor(PDU2) = 0x%02x, want broadcast", got)
	}
}
