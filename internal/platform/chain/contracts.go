package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
)

// Minimal ABIs for the LearnToken (ERC20 + owner mint) and Badge (ERC721 + owner mint) contracts.
const learnTokenABI = `[
 {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
 {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

const badgeNFTABI = `[
 {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"safeMint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"uri","type":"string"}],"outputs":[{"name":"","type":"uint256"}]}
]`

// Contract is the subset of *bind.BoundContract the bridge needs.
type Contract interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
}

func parseABIs() (token abi.ABI, nft abi.ABI, err error) {
	token, err = abi.JSON(strings.NewReader(learnTokenABI))
	if err != nil {
		return abi.ABI{}, abi.ABI{}, err
	}
	nft, err = abi.JSON(strings.NewReader(badgeNFTABI))
	if err != nil {
		return abi.ABI{}, abi.ABI{}, err
	}
	return token, nft, nil
}
