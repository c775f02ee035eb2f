// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package adif

// Tag names, lower-cased. Decoding matches tags case-insensitively; encoding
// writes them upper-cased.
const (
	tagAmlogID         = "app_amlog_id"
	tagCall            = "call"
	tagQSODate         = "qso_date"
	tagTimeOn          = "time_on"
	tagFreq            = "freq"
	tagMode            = "mode"
	tagBand            = "band"
	tagRSTSent         = "rst_sent"
	tagRSTRcvd         = "rst_rcvd"
	tagTxPwr           = "tx_pwr"
	tagOperator        = "operator"
	tagStationCallsign = "station_callsign"
	tagName            = "name"
	tagQTH             = "qth"
	tagState           = "state"
	tagCounty          = "cnty"
	tagCountry         = "country"
	tagDXCC            = "dxcc"
	tagGridsquare      = "gridsquare"
	tagGrid            = "grid" // accepted on input only
	tagMyGridsquare    = "my_gridsquare"
	tagNotes           = "notes"

	tagEOH = "eoh"
	tagEOR = "eor"
)

const (
	adifVersion = "3.1.4"
	programID   = "amlog"

	dateLayout      = "20060102"
	timeLayout      = "150405"
	shortTimeLayout = "1504"
)

// modeledTags lists every tag that maps onto a LogEntry field. None of them
// may be used as a custom field key.
var modeledTags = []string{
	tagAmlogID, tagCall, tagQSODate, tagTimeOn, tagFreq, tagMode, tagBand,
	tagRSTSent, tagRSTRcvd, tagTxPwr, tagOperator, tagStationCallsign,
	tagName, tagQTH, tagState, tagCounty, tagCountry, tagDXCC,
	tagGridsquare, tagGrid, tagMyGridsquare, tagNotes,
}
