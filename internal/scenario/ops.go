package scenario

import (
	"github.com/holiman/uint256"

	"exchangeLedger/internal/exchange"
	"exchangeLedger/internal/host"
)

// poolOp reads an operation's arguments and returns the call to run against
// the pool at call.To.
type poolOp func(a *args, call exchange.Call) host.Func

func one(v *uint256.Int, err error) ([]*uint256.Int, error) {
	if err != nil {
		return nil, err
	}
	return []*uint256.Int{v}, nil
}

var poolOps = map[string]poolOp{
	"add_liquidity": func(a *args, call exchange.Call) host.Func {
		minShares, maxTokens, deadline := a.amount("min_shares"), a.amount("max_tokens"), a.uint("deadline")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.AddLiquidity(b, call, minShares, maxTokens, deadline))
		}
	},
	"remove_liquidity": func(a *args, call exchange.Call) host.Func {
		shares, minNative, minTokens, deadline := a.amount("shares"), a.amount("min_native"), a.amount("min_tokens"), a.uint("deadline")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			native, tokens, err := ex.RemoveLiquidity(b, call, shares, minNative, minTokens, deadline)
			if err != nil {
				return nil, err
			}
			return []*uint256.Int{native, tokens}, nil
		}
	},
	"default": func(_ *args, call exchange.Call) host.Func {
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.Default(b, call))
		}
	},

	"eth_to_token_swap_input": func(a *args, call exchange.Call) host.Func {
		minTokens, deadline := a.amount("min_tokens"), a.uint("deadline")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.NativeToTokenSwapInput(b, call, minTokens, deadline))
		}
	},
	"eth_to_token_transfer_input": func(a *args, call exchange.Call) host.Func {
		minTokens, deadline, recipient := a.amount("min_tokens"), a.uint("deadline"), a.address("recipient")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.NativeToTokenTransferInput(b, call, minTokens, deadline, recipient))
		}
	},
	"eth_to_token_swap_output": func(a *args, call exchange.Call) host.Func {
		tokensBought, deadline := a.amount("tokens_bought"), a.uint("deadline")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.NativeToTokenSwapOutput(b, call, tokensBought, deadline))
		}
	},
	"eth_to_token_transfer_output": func(a *args, call exchange.Call) host.Func {
		tokensBought, deadline, recipient := a.amount("tokens_bought"), a.uint("deadline"), a.address("recipient")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.NativeToTokenTransferOutput(b, call, tokensBought, deadline, recipient))
		}
	},

	"token_to_eth_swap_input": func(a *args, call exchange.Call) host.Func {
		tokensSold, minNative, deadline := a.amount("tokens_sold"), a.amount("min_native"), a.uint("deadline")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToNativeSwapInput(b, call, tokensSold, minNative, deadline))
		}
	},
	"token_to_eth_transfer_input": func(a *args, call exchange.Call) host.Func {
		tokensSold, minNative, deadline, recipient := a.amount("tokens_sold"), a.amount("min_native"), a.uint("deadline"), a.address("recipient")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToNativeTransferInput(b, call, tokensSold, minNative, deadline, recipient))
		}
	},
	"token_to_eth_swap_output": func(a *args, call exchange.Call) host.Func {
		nativeBought, maxTokens, deadline := a.amount("native_bought"), a.amount("max_tokens"), a.uint("deadline")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToNativeSwapOutput(b, call, nativeBought, maxTokens, deadline))
		}
	},
	"token_to_eth_transfer_output": func(a *args, call exchange.Call) host.Func {
		nativeBought, maxTokens, deadline, recipient := a.amount("native_bought"), a.amount("max_tokens"), a.uint("deadline"), a.address("recipient")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToNativeTransferOutput(b, call, nativeBought, maxTokens, deadline, recipient))
		}
	},

	"token_to_token_swap_input": func(a *args, call exchange.Call) host.Func {
		in := readChainedInput(a)
		bought := a.address("token")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToTokenSwapInput(b, call, in.sold, in.minBought, in.minNative, in.deadline, bought))
		}
	},
	"token_to_token_transfer_input": func(a *args, call exchange.Call) host.Func {
		in := readChainedInput(a)
		recipient, bought := a.address("recipient"), a.address("token")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToTokenTransferInput(b, call, in.sold, in.minBought, in.minNative, in.deadline, recipient, bought))
		}
	},
	"token_to_token_swap_output": func(a *args, call exchange.Call) host.Func {
		out := readChainedOutput(a)
		bought := a.address("token")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToTokenSwapOutput(b, call, out.bought, out.maxSold, out.maxNative, out.deadline, bought))
		}
	},
	"token_to_token_transfer_output": func(a *args, call exchange.Call) host.Func {
		out := readChainedOutput(a)
		recipient, bought := a.address("recipient"), a.address("token")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToTokenTransferOutput(b, call, out.bought, out.maxSold, out.maxNative, out.deadline, recipient, bought))
		}
	},

	"token_to_exchange_swap_input": func(a *args, call exchange.Call) host.Func {
		in := readChainedInput(a)
		target := a.address("exchange")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToExchangeSwapInput(b, call, in.sold, in.minBought, in.minNative, in.deadline, target))
		}
	},
	"token_to_exchange_transfer_input": func(a *args, call exchange.Call) host.Func {
		in := readChainedInput(a)
		recipient, target := a.address("recipient"), a.address("exchange")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToExchangeTransferInput(b, call, in.sold, in.minBought, in.minNative, in.deadline, recipient, target))
		}
	},
	"token_to_exchange_swap_output": func(a *args, call exchange.Call) host.Func {
		out := readChainedOutput(a)
		target := a.address("exchange")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToExchangeSwapOutput(b, call, out.bought, out.maxSold, out.maxNative, out.deadline, target))
		}
	},
	"token_to_exchange_transfer_output": func(a *args, call exchange.Call) host.Func {
		out := readChainedOutput(a)
		recipient, target := a.address("recipient"), a.address("exchange")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return one(ex.TokenToExchangeTransferOutput(b, call, out.bought, out.maxSold, out.maxNative, out.deadline, recipient, target))
		}
	},

	"transfer": func(a *args, call exchange.Call) host.Func {
		to, value := a.address("to"), a.amount("amount")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return nil, ex.Transfer(b, call, to, value)
		}
	},
	"transfer_from": func(a *args, call exchange.Call) host.Func {
		owner, to, value := a.address("owner"), a.address("to"), a.amount("amount")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return nil, ex.TransferFrom(b, call, owner, to, value)
		}
	},
	"approve": func(a *args, call exchange.Call) host.Func {
		spender, value := a.address("spender"), a.amount("amount")
		return func(b exchange.Backend, ex *exchange.Exchange) ([]*uint256.Int, error) {
			return nil, ex.Approve(b, call, spender, value)
		}
	},
}

type chainedInput struct {
	sold, minBought, minNative *uint256.Int
	deadline                   uint64
}

func readChainedInput(a *args) chainedInput {
	return chainedInput{
		sold:      a.amount("tokens_sold"),
		minBought: a.amount("min_tokens_bought"),
		minNative: a.amount("min_native_bought"),
		deadline:  a.uint("deadline"),
	}
}

type chainedOutput struct {
	bought, maxSold, maxNative *uint256.Int
	deadline                   uint64
}

func readChainedOutput(a *args) chainedOutput {
	return chainedOutput{
		bought:    a.amount("tokens_bought"),
		maxSold:   a.amount("max_tokens_sold"),
		maxNative: a.amount("max_native_sold"),
		deadline:  a.uint("deadline"),
	}
}
