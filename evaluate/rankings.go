package evaluate

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/sabela/consulta/core"
)

// RankingSize is the number of ground-truth articles per query.
const RankingSize = 5

// Ranking is one labeled query: the text a user would type and the five
// article ids a human judged most relevant, best first.
type Ranking struct {
	QueryID   int
	QueryText string
	Articles  []core.ID
}

const (
	blockMarker = "### Consulta"
	queryMarker = "**Consulta:**"
)

var rankedLine = regexp.MustCompile(`^\d+\.\s*(\d+)\s*$`)

// ParseRankings reads a markdown rankings file. Each block starts with
// "### Consulta <id>:", carries a "**Consulta:** <text>" line and a
// numbered list of article ids.
func ParseRankings(r io.Reader) ([]Ranking, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	blocks := strings.Split(string(content), blockMarker)
	if len(blocks) < 2 {
		return nil, ErrNoRankings
	}

	rankings := make([]Ranking, 0, len(blocks)-1)
	for _, block := range blocks[1:] {
		ranking, err := parseBlock(block)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, ranking)
	}
	return rankings, nil
}

func parseBlock(block string) (Ranking, error) {
	lines := strings.Split(strings.TrimSpace(block), "\n")
	if len(lines) == 0 {
		return Ranking{}, ErrMalformedRanking
	}

	idText, _, _ := strings.Cut(lines[0], ":")
	queryID, err := strconv.Atoi(strings.TrimSpace(idText))
	if err != nil {
		return Ranking{}, fmt.Errorf("%w: bad query id %q", ErrMalformedRanking, lines[0])
	}

	var queryText string
	articles := make([]core.ID, 0, RankingSize)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)

		if queryText == "" {
			if _, after, found := strings.Cut(line, queryMarker); found {
				queryText = strings.TrimSpace(after)
			}
			continue
		}

		if len(articles) == RankingSize {
			break
		}
		if m := rankedLine.FindStringSubmatch(line); m != nil {
			id, err := strconv.ParseUint(m[1], 10, 64)
			if err != nil {
				return Ranking{}, fmt.Errorf("%w: bad article id %q", ErrMalformedRanking, line)
			}
			articles = append(articles, core.ID(id))
		}
	}

	if queryText == "" {
		return Ranking{}, fmt.Errorf("%w: query %d has no text", ErrMalformedRanking, queryID)
	}
	if len(articles) != RankingSize {
		return Ranking{}, fmt.Errorf("%w: query %d lists %d articles, want %d",
			ErrMalformedRanking, queryID, len(articles), RankingSize)
	}

	return Ranking{QueryID: queryID, QueryText: queryText, Articles: articles}, nil
}
