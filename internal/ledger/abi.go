package ledger

// Contract interfaces the gateway calls. Only the functions used here are listed.

const credentialRegistryABI = `[
  {"type":"function","name":"issueCredential","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"credentialHash","type":"bytes32"},{"name":"ipfsCID","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"revokeCredential","stateMutability":"nonpayable",
   "inputs":[{"name":"credentialHash","type":"bytes32"}],
   "outputs":[]},
  {"type":"function","name":"getUserCredentials","stateMutability":"view",
   "inputs":[{"name":"user","type":"address"}],
   "outputs":[{"name":"","type":"tuple[]","components":[
     {"name":"credentialHash","type":"bytes32"},
     {"name":"ipfsCID","type":"string"},
     {"name":"issuer","type":"address"},
     {"name":"isValid","type":"bool"},
     {"name":"issuedAt","type":"uint256"}]}]}
]`

const trustRegistryABI = `[
  {"type":"function","name":"isTrusted","stateMutability":"view",
   "inputs":[{"name":"issuer","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]}
]`

const interactionHubABI = `[
  {"type":"function","name":"createClaimRequest","stateMutability":"nonpayable",
   "inputs":[{"name":"target","type":"address"},{"name":"fields","type":"string[]"},{"name":"reason","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"fulfillClaimRequest","stateMutability":"nonpayable",
   "inputs":[{"name":"requestId","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"createAttestation","stateMutability":"nonpayable",
   "inputs":[{"name":"target","type":"address"},{"name":"text","type":"string"}],
   "outputs":[]}
]`
