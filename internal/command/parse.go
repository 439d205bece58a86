package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cxd309/transit-sim/internal/network"
	"github.com/cxd309/transit-sim/internal/person"
)

// ErrParse is wrapped by every error Parse returns.
var ErrParse = errors.New("parse error")

func parseErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

// Parse turns one command line into a batch of actions. Blank lines and
// lines starting with '#' yield an empty batch.
func Parse(line string) (Actions, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
		return nil, nil
	}
	verb, args := strings.ToLower(tokens[0]), tokens[1:]
	switch verb {
	case "get":
		return parseGet(args)
	case "block", "unblock":
		return parseBlock(verb == "block", args)
	case "make":
		return parseMake(args)
	case "spawn":
		return parseSpawn(args)
	case "route":
		return parseRoute(args)
	case "show", "hide":
		return parseVisibility(verb == "show", args)
	case "dump":
		return parseDump(args)
	case "gather":
		return parseGather(args)
	case "sleep":
		if len(args) != 1 {
			return nil, parseErr("usage: sleep <seconds>")
		}
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil || secs < 0 {
			return nil, parseErr("invalid sleep duration %q", args[0])
		}
		return Actions{Sleep{Duration: time.Duration(secs * float64(time.Second))}}, nil
	case "loop":
		if len(args) != 1 {
			return nil, parseErr("usage: loop <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return nil, parseErr("invalid loop count %q", args[0])
		}
		return Actions{Loop{N: n}}, nil
	case "endloop":
		return Actions{EndLoop{}}, nil
	case "conc":
		return Actions{StartConcurrency{}}, nil
	case "doconc":
		return Actions{DoConcurrently{}}, nil
	case "endconc":
		return Actions{EndConcurrency{}}, nil
	case "exit", "quit":
		code := 0
		if len(args) > 0 {
			c, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, parseErr("invalid exit code %q", args[0])
			}
			code = c
		}
		return Actions{KillSimulation{Code: code}}, nil
	}
	return nil, parseErr("unknown command %q", tokens[0])
}

// ParseIDs expands id tokens: plain ids, inclusive ranges "3..7" and comma lists.
func ParseIDs(tokens []string) ([]int, error) {
	var out []int
	for _, tok := range tokens {
		for _, part := range strings.Split(tok, ",") {
			if part == "" {
				continue
			}
			if lo, hi, ok := strings.Cut(part, ".."); ok {
				a, err1 := strconv.Atoi(lo)
				b, err2 := strconv.Atoi(hi)
				if err1 != nil || err2 != nil || a > b {
					return nil, parseErr("invalid id range %q", part)
				}
				for i := a; i <= b; i++ {
					out = append(out, i)
				}
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, parseErr("invalid id %q", part)
			}
			out = append(out, id)
		}
	}
	return out, nil
}

func parseEntity(tok string) (Entity, error) {
	switch strings.ToLower(tok) {
	case "person", "people":
		return EntityPerson, nil
	case "pod", "pods":
		return EntityPod, nil
	case "station", "stations":
		return EntityStation, nil
	}
	return "", parseErr("unknown entity %q", tok)
}

// parseLineDir splits "U1+" into line and direction; a missing sign yields
// both directions.
func parseLineDir(tok string) (network.LineName, []network.Direction, error) {
	dirs := []network.Direction{network.Pos, network.Neg}
	if n := len(tok); n > 0 && (tok[n-1] == '+' || tok[n-1] == '-') {
		d, _ := network.ParseDirection(tok[n-1:])
		dirs = []network.Direction{d}
		tok = tok[:n-1]
	}
	name, err := network.ParseLineName(tok)
	if err != nil {
		return network.LineName{}, nil, parseErr("%v", err)
	}
	return name, dirs, nil
}

func parseGet(args []string) (Actions, error) {
	if len(args) < 2 {
		return nil, parseErr("usage: get {station|person|pod} <ids>")
	}
	ent, err := parseEntity(args[0])
	if err != nil {
		return nil, err
	}
	ids, err := ParseIDs(args[1:])
	if err != nil {
		return nil, err
	}
	var out Actions
	for _, id := range ids {
		switch ent {
		case EntityStation:
			out = append(out, GetStation{ID: id})
		case EntityPerson:
			out = append(out, GetPerson{ID: id})
		case EntityPod:
			out = append(out, GetPod{ID: id})
		}
	}
	return out, nil
}

func parseBlock(block bool, args []string) (Actions, error) {
	if len(args) < 2 {
		return nil, parseErr("usage: block|unblock {connection a-b[-c...] | station <id> | platform <station> <line>}")
	}
	var out Actions
	switch strings.ToLower(args[0]) {
	case "connection":
		for _, chain := range args[1:] {
			parts := strings.Split(chain, "-")
			if len(parts) < 2 {
				return nil, parseErr("invalid connection %q", chain)
			}
			ids, err := ParseIDs(parts)
			if err != nil {
				return nil, err
			}
			for i := 0; i+1 < len(ids); i++ {
				if block {
					out = append(out, BlockConnection{A: ids[i], B: ids[i+1]})
				} else {
					out = append(out, UnblockConnection{A: ids[i], B: ids[i+1]})
				}
			}
		}
	case "station":
		ids, err := ParseIDs(args[1:])
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if block {
				out = append(out, BlockStation{ID: id})
			} else {
				out = append(out, UnblockStation{ID: id})
			}
		}
	case "platform":
		if len(args) != 3 {
			return nil, parseErr("usage: block|unblock platform <station> <line>")
		}
		st, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, parseErr("invalid station %q", args[1])
		}
		line, err := network.ParseLineName(args[2])
		if err != nil {
			return nil, parseErr("%v", err)
		}
		if block {
			out = append(out, BlockPlatform{Station: st, Line: line})
		} else {
			out = append(out, UnblockPlatform{Station: st, Line: line})
		}
	default:
		return nil, parseErr("cannot block %q", args[0])
	}
	return out, nil
}

func parseMake(args []string) (Actions, error) {
	if len(args) != 4 || strings.ToLower(args[1]) != "platform" {
		return nil, parseErr("usage: make {operational|passable|queueable} platform <station> <line[+|-]>")
	}
	state, ok := network.ParsePlatformState(strings.ToLower(args[0]))
	if !ok {
		return nil, parseErr("unknown platform state %q", args[0])
	}
	st, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, parseErr("invalid station %q", args[2])
	}
	line, dirs, err := parseLineDir(args[3])
	if err != nil {
		return nil, err
	}
	var out Actions
	for _, d := range dirs {
		out = append(out, MakePlatform{Station: st, Line: line, Direction: d, State: state})
	}
	return out, nil
}

func parseSpawn(args []string) (Actions, error) {
	force := false
	var rest []string
	for _, a := range args {
		switch a {
		case "--force", "-f":
			force = true
		default:
			rest = append(rest, a)
		}
	}
	if len(rest) != 3 || strings.ToLower(rest[0]) != "pod" {
		return nil, parseErr("usage: spawn pod <station> <line[+|-]> [--force]")
	}
	st, err := strconv.Atoi(rest[1])
	if err != nil {
		return nil, parseErr("invalid station %q", rest[1])
	}
	line, dirs, err := parseLineDir(rest[2])
	if err != nil {
		return nil, err
	}
	// An unsigned line spawns in the positive direction only.
	return Actions{SpawnPod{Station: st, Line: line, Direction: dirs[0], Force: force}}, nil
}

func parseRoute(args []string) (Actions, error) {
	if len(args) == 0 || !strings.EqualFold(args[0], "person") {
		return nil, parseErr("usage: route person [--random|-r] [--stay|-s] <ids...> [to_station]")
	}
	var random, stay bool
	var rest []string
	for _, a := range args[1:] {
		switch a {
		case "--random", "-r":
			random = true
		case "--stay", "-s":
			stay = true
		default:
			rest = append(rest, a)
		}
	}
	var station int
	if !random {
		if len(rest) < 2 {
			return nil, parseErr("route person needs ids and a destination station")
		}
		s, err := strconv.Atoi(rest[len(rest)-1])
		if err != nil {
			return nil, parseErr("invalid station %q", rest[len(rest)-1])
		}
		station, rest = s, rest[:len(rest)-1]
	}
	ids, err := ParseIDs(rest)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, parseErr("route person needs at least one id")
	}
	var out Actions
	for _, id := range ids {
		out = append(out, RoutePerson{ID: id, Command: person.RouteCommand{Station: station, StayThere: stay, Random: random}})
	}
	return out, nil
}

func parseVisibility(show bool, args []string) (Actions, error) {
	if len(args) < 2 {
		return nil, parseErr("usage: show|hide {person|pod|station} <ids...> [--follow|--permanent]")
	}
	ent, err := parseEntity(args[0])
	if err != nil {
		return nil, err
	}
	var follow, permanent bool
	var rest []string
	for _, a := range args[1:] {
		switch a {
		case "--follow":
			follow = true
		case "--permanent":
			permanent = true
		default:
			rest = append(rest, a)
		}
	}
	ids, err := ParseIDs(rest)
	if err != nil {
		return nil, err
	}
	var out Actions
	for _, id := range ids {
		out = append(out, Visibility{Entity: ent, ID: id, Show: show, Follow: follow, Permanent: permanent})
	}
	return out, nil
}

// parseSelection reads "<entity> <ids...|flag>" shared by dump and gather.
func parseSelection(args []string, flag string) (Entity, []int, bool, error) {
	if len(args) < 2 {
		return "", nil, false, parseErr("expected an entity and ids or %s", flag)
	}
	ent, err := parseEntity(args[0])
	if err != nil {
		return "", nil, false, err
	}
	if len(args) == 2 && args[1] == flag {
		return ent, nil, true, nil
	}
	ids, err := ParseIDs(args[1:])
	return ent, ids, false, err
}

func parseDump(args []string) (Actions, error) {
	if len(args) == 1 && strings.EqualFold(args[0], "config") {
		return Actions{DumpConfig{}}, nil
	}
	if len(args) < 1 || !strings.EqualFold(args[0], "metrics") {
		return nil, parseErr("usage: dump {metrics <entity> <ids...|--avg> | config}")
	}
	ent, ids, avg, err := parseSelection(args[1:], "--avg")
	if err != nil {
		return nil, err
	}
	return Actions{DumpMetrics{Entity: ent, IDs: ids, Avg: avg}}, nil
}

func parseGather(args []string) (Actions, error) {
	if len(args) < 1 || !strings.EqualFold(args[0], "metrics") {
		return nil, parseErr("usage: gather metrics <entity> <ids...|--all>")
	}
	ent, ids, all, err := parseSelection(args[1:], "--all")
	if err != nil {
		return nil, err
	}
	return Actions{GatherMetrics{Entity: ent, IDs: ids, All: all}}, nil
}
