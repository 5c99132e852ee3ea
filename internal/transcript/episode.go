package transcript

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var episodePattern = regexp.MustCompile(`(?i)s(\d{1,2})e(\d{1,2})`)

// EpisodeCode returns the canonical SxxEyy code found in a file name, or the
// lower-cased file stem when the name carries none
func EpisodeCode(path string) string {
	stem := fileStem(path)
	if m := episodePattern.FindStringSubmatch(stem); m != nil {
		season, _ := strconv.Atoi(m[1])
		episode, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("S%02dE%02d", season, episode)
	}
	return strings.ToLower(stem)
}

// MatchEpisodes pairs each transcript with an audio file of the same episode.
// Files are paired by SxxEyy code when both names carry one; otherwise a
// shared word of three or more characters is enough. Unmatched transcripts
// are absent from the result.
func MatchEpisodes(transcripts, audio []string) map[string]string {
	sortedAudio := append([]string(nil), audio...)
	sort.Strings(sortedAudio)

	pairs := make(map[string]string, len(transcripts))
	for _, tr := range transcripts {
		for _, au := range sortedAudio {
			if episodesMatch(fileStem(tr), fileStem(au)) {
				pairs[tr] = au
				break
			}
		}
	}
	return pairs
}

func episodesMatch(a, b string) bool {
	ma := episodePattern.FindStringSubmatch(a)
	mb := episodePattern.FindStringSubmatch(b)
	if ma != nil && mb != nil {
		return EpisodeCode(a) == EpisodeCode(b)
	}

	lowerB := strings.ToLower(b)
	for _, word := range stemWords(a) {
		if len(word) >= 3 && strings.Contains(lowerB, word) {
			return true
		}
	}
	return false
}

func stemWords(stem string) []string {
	return strings.FieldsFunc(strings.ToLower(stem), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
