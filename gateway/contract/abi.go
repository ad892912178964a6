package contract

// NftTicketABI は NftTicket コントラクトのABI
const NftTicketABI = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "eventId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "organizer", "type": "address"},
      {"indexed": false, "internalType": "string", "name": "eventName", "type": "string"},
      {"indexed": false, "internalType": "uint256", "name": "eventDate", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "price", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "releaseDays", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "royalty", "type": "uint256"}
    ],
    "name": "TicketEventCreated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "assetId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "buyer", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "eventDate", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "price", "type": "uint256"}
    ],
    "name": "TicketPurchased",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "assetId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "from", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "royaltyPaid", "type": "uint256"}
    ],
    "name": "TicketTransferred",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "assetId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "buyer", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"}
    ],
    "name": "TicketRefunded",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "eventDate", "type": "uint256"},
      {"indexed": false, "internalType": "bool", "name": "frozen", "type": "bool"}
    ],
    "name": "FreezeStatusChanged",
    "type": "event"
  },
  {
    "inputs": [
      {"internalType": "string", "name": "eventName", "type": "string"},
      {"internalType": "uint256", "name": "eventDate", "type": "uint256"},
      {"internalType": "uint256", "name": "price", "type": "uint256"},
      {"internalType": "uint256", "name": "releaseDays", "type": "uint256"},
      {"internalType": "uint256", "name": "royalty", "type": "uint256"}
    ],
    "name": "createTicketEvent",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "buyerAddress", "type": "address"},
      {"internalType": "uint256", "name": "eventDate", "type": "uint256"},
      {"internalType": "uint256", "name": "ticketPrice", "type": "uint256"}
    ],
    "name": "purchaseTicket",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "assetId", "type": "uint256"},
      {"internalType": "address", "name": "newOwner", "type": "address"},
      {"internalType": "uint256", "name": "transferFee", "type": "uint256"}
    ],
    "name": "transferTicket",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "assetId", "type": "uint256"},
      {"internalType": "address", "name": "buyerAddress", "type": "address"},
      {"internalType": "uint256", "name": "refundAmount", "type": "uint256"},
      {"internalType": "uint256", "name": "eventDate", "type": "uint256"},
      {"internalType": "uint256", "name": "refundDeadlineDays", "type": "uint256"}
    ],
    "name": "refundTicket",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "assetId", "type": "uint256"},
      {"internalType": "address", "name": "buyerAddress", "type": "address"},
      {"internalType": "uint256", "name": "refundAmount", "type": "uint256"},
      {"internalType": "uint256", "name": "eventDate", "type": "uint256"}
    ],
    "name": "cancelEventRefund",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "emergencyFreeze",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "eventDate", "type": "uint256"},
      {"internalType": "uint256", "name": "releaseDays", "type": "uint256"}
    ],
    "name": "releaseFreeze",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "eventDate", "type": "uint256"},
      {"internalType": "uint256", "name": "releaseDays", "type": "uint256"}
    ],
    "name": "checkFreezeStatus",
    "outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
    "stateMutability": "view",
    "type": "function"
  }
]`
