package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/crypto"
	"github.com/eigerco/computeplane/internal/crypto/ed25519"
	"github.com/eigerco/computeplane/internal/impl"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/runtime"
)

// script is a genesis followed by blocks. Accounts are named: a name is
// hashed into the ed25519 seed of its key. Inside call arguments a string
// "@name" stands for the account id of name.
type script struct {
	Genesis scriptGenesis `json:"genesis"`
	Blocks  []scriptBlock `json:"blocks"`
}

type scriptGenesis struct {
	Timestamp     uint64                 `json:"timestamp"`
	Seed          string                 `json:"seed"`
	FlipFlopStart primitives.BlockNumber `json:"flip_flop_start"`
	Balances      []struct {
		Account string             `json:"account"`
		Free    primitives.Balance `json:"free"`
	} `json:"balances"`
	Impls []struct {
		Owner                string                    `json:"owner"`
		AttestationMethod    attestation.Method        `json:"attestation_method"`
		DeploymentPermission impl.DeploymentPermission `json:"deployment_permission"`
		Builds               []runtime.GenesisBuild    `json:"builds"`
	} `json:"impls"`
}

type scriptBlock struct {
	Number     primitives.BlockNumber `json:"number"`
	Timestamp  uint64                 `json:"timestamp"`
	Extrinsics []scriptExtrinsic      `json:"extrinsics"`
}

type scriptExtrinsic struct {
	// Origin is an account name, "root", or empty for an unsigned call
	Origin string          `json:"origin"`
	Call   string          `json:"call"`
	Args   json.RawMessage `json:"args"`
}

type account struct {
	id  primitives.AccountId
	key ed25519.PrivateKey
}

func newAccount(name string) account {
	seed := crypto.HashData([]byte(name))
	key := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
	var id primitives.AccountId
	copy(id[:], key.Public().(ed25519.PublicKey))
	return account{id: id, key: key}
}

func loadScript(path string) (script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return script{}, fmt.Errorf("read script: %w", err)
	}
	var s script
	if err := json.Unmarshal(raw, &s); err != nil {
		return script{}, fmt.Errorf("decode script %s: %w", path, err)
	}
	return s, nil
}

func (g scriptGenesis) resolve() runtime.Genesis {
	out := runtime.Genesis{Timestamp: g.Timestamp, Seed: g.Seed, FlipFlopStart: g.FlipFlopStart}
	for _, b := range g.Balances {
		out.Balances = append(out.Balances, runtime.GenesisAccount{Account: newAccount(b.Account).id, Free: b.Free})
	}
	for _, i := range g.Impls {
		out.Impls = append(out.Impls, runtime.GenesisImpl{
			Owner:                newAccount(i.Owner).id,
			AttestationMethod:    i.AttestationMethod,
			DeploymentPermission: i.DeploymentPermission,
			Builds:               i.Builds,
		})
	}
	return out
}

func (b scriptBlock) resolve() (runtime.Block, error) {
	out := runtime.Block{Number: b.Number, Timestamp: b.Timestamp}
	for i, x := range b.Extrinsics {
		ext, err := x.resolve(b.Timestamp)
		if err != nil {
			return runtime.Block{}, fmt.Errorf("block %d extrinsic %d: %w", b.Number, i, err)
		}
		out.Extrinsics = append(out.Extrinsics, ext)
	}
	return out, nil
}

// resolve decodes the call and signs NonTEE attestations that carry no
// signature with the origin's key, issued at the block time.
func (x scriptExtrinsic) resolve(now uint64) (runtime.Extrinsic, error) {
	args, err := substituteAccounts(x.Args)
	if err != nil {
		return runtime.Extrinsic{}, err
	}
	call, err := runtime.DecodeCall(x.Call, args)
	if err != nil {
		return runtime.Extrinsic{}, err
	}

	var origin primitives.Origin
	switch x.Origin {
	case "":
		origin = primitives.None()
	case "root":
		origin = primitives.Root()
	default:
		origin = primitives.Signed(newAccount(x.Origin).id)
	}

	var (
		payload  primitives.OnlinePayload
		envelope *attestation.Envelope
	)
	switch c := call.(type) {
	case *runtime.Online:
		payload, envelope = c.Payload, &c.Attestation
	case *runtime.RefreshAttestation:
		payload, envelope = c.Payload, &c.Attestation
	}
	if envelope != nil && envelope.Method == attestation.NonTEE && len(envelope.Payload) == 0 && x.Origin != "" {
		issuedAt := envelope.IssuedAt
		if issuedAt == 0 {
			issuedAt = now
		}
		signed, err := attestation.NewNonTEE(newAccount(x.Origin).key, payload, issuedAt)
		if err != nil {
			return runtime.Extrinsic{}, err
		}
		*envelope = signed
	}
	return runtime.Extrinsic{Origin: origin, Call: call}, nil
}

// substituteAccounts replaces every "@name" string in args with the account
// id of name.
func substituteAccounts(args json.RawMessage) (json.RawMessage, error) {
	if len(args) == 0 {
		return args, nil
	}
	var v interface{}
	if err := json.Unmarshal(args, &v); err != nil {
		return nil, fmt.Errorf("decode args: %w", err)
	}
	return json.Marshal(substitute(v))
}

func substitute(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		if name, ok := strings.CutPrefix(t, "@"); ok {
			return newAccount(name).id.String()
		}
		return t
	case map[string]interface{}:
		for k, e := range t {
			t[k] = substitute(e)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = substitute(e)
		}
		return t
	default:
		return v
	}
}
