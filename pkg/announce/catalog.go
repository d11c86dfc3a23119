package announce

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

type entry struct {
	key        string
	en, fr, ja string
}

var entries = []entry{
	{"forward1", "forward 1 square", "avancer d'une case", "1マス前へ"},
	{"forward2", "forward 2 squares", "avancer de 2 cases", "2マス前へ"},
	{"forward3", "forward 3 squares", "avancer de 3 cases", "3マス前へ"},
	{"left45", "turn left 45 degrees", "tourner à gauche de 45 degrés", "左に45度回る"},
	{"left90", "turn left 90 degrees", "tourner à gauche de 90 degrés", "左に90度回る"},
	{"left180", "turn left 180 degrees", "tourner à gauche de 180 degrés", "左に180度回る"},
	{"right45", "turn right 45 degrees", "tourner à droite de 45 degrés", "右に45度回る"},
	{"right90", "turn right 90 degrees", "tourner à droite de 90 degrés", "右に90度回る"},
	{"right180", "turn right 180 degrees", "tourner à droite de 180 degrés", "右に180度回る"},

	{"state.running", "playing", "lecture", "実行中"},
	{"state.paused", "paused", "en pause", "一時停止"},
	{"state.pauseRequested", "pausing", "mise en pause", "一時停止中"},
	{"state.stopped", "stopped", "arrêté", "停止"},
	{"state.stopRequested", "stopping", "arrêt en cours", "停止中"},

	{"direction.north", "north", "nord", "北"},
	{"direction.northeast", "northeast", "nord-est", "北東"},
	{"direction.east", "east", "est", "東"},
	{"direction.southeast", "southeast", "sud-est", "南東"},
	{"direction.south", "south", "sud", "南"},
	{"direction.southwest", "southwest", "sud-ouest", "南西"},
	{"direction.west", "west", "ouest", "西"},
	{"direction.northwest", "northwest", "nord-ouest", "北西"},

	{"position", "at %s facing %s", "en %s, orienté vers %s", "%s で%sを向いている"},
	{"unknown", "unknown command %s", "commande inconnue %s", "不明なコマンド %s"},
}

// Supported lists the languages with announcements.
var Supported = []language.Tag{language.English, language.French, language.Japanese}

func newCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, e := range entries {
		for _, msg := range []struct {
			tag  language.Tag
			text string
		}{
			{language.English, e.en},
			{language.French, e.fr},
			{language.Japanese, e.ja},
		} {
			if err := b.SetString(msg.tag, e.key, msg.text); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
