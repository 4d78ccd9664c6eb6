package api

import (
	"net/http"
)

// playerHTML is a single-page trace player: draw a graph, POST it to /solve,
// then step through the returned trace. The side panel tails /ws/events.
const playerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>mapcolor - Trace Player</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: monospace;
            background: #1a1a2e;
            color: #eee;
            height: 100vh;
            display: flex;
            flex-direction: column;
        }
        header {
            background: #16213e;
            padding: 12px 20px;
            border-bottom: 1px solid #0f3460;
            display: flex;
            justify-content: space-between;
            align-items: center;
        }
        header h1 { font-size: 16px; font-weight: normal; }
        #status { padding: 4px 10px; border-radius: 4px; font-size: 12px; }
        #status.connected { background: #1b4332; color: #95d5b2; }
        #status.disconnected { background: #7f1d1d; color: #fca5a5; }
        #status.connecting { background: #78350f; color: #fcd34d; }
        .controls {
            background: #16213e;
            padding: 10px 20px;
            border-bottom: 1px solid #0f3460;
            display: flex;
            gap: 12px;
            align-items: center;
            flex-wrap: wrap;
        }
        .controls input[type=number] { width: 60px; }
        input, button {
            font-family: monospace;
            background: #0f3460;
            color: #eee;
            border: 1px solid #1f4a8a;
            padding: 4px 8px;
            border-radius: 4px;
        }
        button { cursor: pointer; }
        button:disabled { opacity: 0.5; cursor: default; }
        main { flex: 1; display: flex; overflow: hidden; }
        #canvas { flex: 1; background: #10102a; cursor: crosshair; }
        aside {
            width: 360px;
            border-left: 1px solid #0f3460;
            display: flex;
            flex-direction: column;
        }
        #step { padding: 10px; min-height: 60px; border-bottom: 1px solid #0f3460; }
        #step .action-check { color: #fcd34d; }
        #step .action-conflict { color: #fca5a5; }
        #step .action-assign { color: #95d5b2; }
        #step .action-backtrack { color: #a5b4fc; }
        #events { flex: 1; overflow-y: auto; padding: 10px; font-size: 12px; }
        .event { padding: 2px 0; border-bottom: 1px solid #222244; }
        .event .ts { color: #888; margin-right: 8px; }
        .event.level-error .name { color: #fca5a5; }
        .event.level-warning .name { color: #fcd34d; }
        #result.success { color: #95d5b2; }
        #result.error { color: #fca5a5; }
        footer { padding: 6px 20px; background: #16213e; font-size: 12px; color: #888; }
    </style>
</head>
<body>
    <header>
        <h1>mapcolor - Trace Player</h1>
        <span id="status" class="disconnected">Disconnected</span>
    </header>
    <div class="controls">
        <label>Colors: <input type="number" id="numColors" value="3" min="1" max="12"></label>
        <button id="solveBtn" onclick="solve()">Solve</button>
        <button id="playBtn" onclick="togglePlay()" disabled>Play</button>
        <button id="stepBtn" onclick="advance()" disabled>Step</button>
        <button onclick="rewind()">Rewind</button>
        <label>Speed: <input type="range" id="speed" min="20" max="1000" value="300"></label>
        <button onclick="clearGraph()">Clear</button>
        <span id="result"></span>
    </div>
    <main>
        <svg id="canvas"></svg>
        <aside>
            <div id="step">Click to add nodes. Click two nodes to connect them.</div>
            <div id="events"></div>
        </aside>
    </main>
    <footer>
        <span id="progress">0 / 0</span> steps | POST /solve | WebSocket: /ws/events
    </footer>

    <script>
        const palette = ['#555', '#e63946', '#2a9d8f', '#e9c46a', '#457b9d', '#f4a261',
                         '#8338ec', '#06d6a0', '#ff006e', '#3a86ff', '#fb5607', '#8ac926', '#ffbe0b'];
        const svg = document.getElementById('canvas');
        const stepEl = document.getElementById('step');
        const resultEl = document.getElementById('result');
        const progressEl = document.getElementById('progress');
        const playBtn = document.getElementById('playBtn');
        const stepBtn = document.getElementById('stepBtn');

        let nodes = [];
        let edges = [];
        let selected = null;
        let trace = [];
        let cursor = 0;
        let colors = {};
        let timer = null;

        function nodeAt(x, y) {
            return nodes.find(function(n) { return Math.hypot(n.x - x, n.y - y) < 20; });
        }

        svg.addEventListener('click', function(ev) {
            const r = svg.getBoundingClientRect();
            const x = ev.clientX - r.left, y = ev.clientY - r.top;
            const hit = nodeAt(x, y);
            if (!hit) {
                nodes.push({ id: 'N' + nodes.length, x: x, y: y });
                selected = null;
            } else if (selected && selected !== hit) {
                edges.push({ source: selected.id, target: hit.id });
                selected = null;
            } else {
                selected = hit;
            }
            resetPlayback();
        });

        function draw(highlight) {
            highlight = highlight || {};
            let out = '';
            edges.forEach(function(e) {
                const a = nodes.find(function(n) { return n.id === e.source; });
                const b = nodes.find(function(n) { return n.id === e.target; });
                out += '<line x1="' + a.x + '" y1="' + a.y + '" x2="' + b.x + '" y2="' + b.y +
                       '" stroke="#446" stroke-width="2"/>';
            });
            nodes.forEach(function(n) {
                let stroke = '#888';
                if (n === selected) stroke = '#fff';
                if (highlight.node === n.id) stroke = highlight.color;
                if (highlight.conflict === n.id) stroke = '#fca5a5';
                out += '<circle cx="' + n.x + '" cy="' + n.y + '" r="18" fill="' +
                       palette[colors[n.id] || 0] + '" stroke="' + stroke + '" stroke-width="4"/>' +
                       '<text x="' + n.x + '" y="' + (n.y + 4) + '" fill="#fff" font-size="11" text-anchor="middle">' +
                       n.id + '</text>';
            });
            svg.innerHTML = out;
        }

        function showResult(success, message) {
            resultEl.className = success ? 'success' : 'error';
            resultEl.textContent = message;
        }

        function resetPlayback() {
            stop();
            cursor = 0;
            colors = {};
            progressEl.textContent = cursor + ' / ' + trace.length;
            draw();
        }

        function solve() {
            const body = {
                nodes: nodes.map(function(n) { return n.id; }),
                edges: edges,
                num_colors: parseInt(document.getElementById('numColors').value, 10)
            };
            fetch('/solve', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify(body)
            })
            .then(function(res) { return res.json(); })
            .then(function(data) {
                if (!data.steps) {
                    trace = [];
                    showResult(false, data.error || 'Solve failed');
                } else {
                    trace = data.steps;
                    showResult(data.success, data.success ? 'Colorable' : 'Not colorable');
                }
                playBtn.disabled = stepBtn.disabled = trace.length === 0;
                resetPlayback();
            })
            .catch(function() { showResult(false, 'Network error'); });
        }

        function advance() {
            if (cursor >= trace.length) { stop(); return; }
            const s = trace[cursor++];
            const hl = { node: s.node, color: palette[s.color || 0] };
            if (s.action === 'assign') colors[s.node] = s.color;
            if (s.action === 'backtrack') delete colors[s.node];
            if (s.action === 'conflict') hl.conflict = s.conflict_with;
            stepEl.innerHTML = '#' + s.step_id + ' <span class="action-' + s.action + '">' +
                               s.action + '</span><br>' + s.description;
            progressEl.textContent = cursor + ' / ' + trace.length;
            draw(hl);
        }

        function stop() {
            if (timer) { clearInterval(timer); timer = null; }
            playBtn.textContent = 'Play';
        }

        function togglePlay() {
            if (timer) { stop(); return; }
            playBtn.textContent = 'Pause';
            timer = setInterval(advance, 1020 - document.getElementById('speed').value);
        }

        function rewind() { resetPlayback(); }

        function clearGraph() {
            nodes = []; edges = []; trace = []; selected = null;
            playBtn.disabled = stepBtn.disabled = true;
            resultEl.textContent = '';
            resetPlayback();
        }

        const eventsDiv = document.getElementById('events');
        const statusEl = document.getElementById('status');
        let ws = null;
        let reconnectTimer = null;

        function setStatus(status) {
            statusEl.className = status;
            statusEl.textContent = status.charAt(0).toUpperCase() + status.slice(1);
        }

        function renderEvent(e) {
            const div = document.createElement('div');
            div.className = 'event level-' + e.level;
            const ts = new Date(e.ts).toLocaleTimeString('en-US', { hour12: false });
            div.innerHTML = '<span class="ts">' + ts + '</span><span class="name">' + e.event + '</span>' +
                            (e.msg ? ' ' + e.msg : '');
            eventsDiv.appendChild(div);
            eventsDiv.scrollTop = eventsDiv.scrollHeight;
            while (eventsDiv.children.length > 200) eventsDiv.removeChild(eventsDiv.firstChild);
        }

        function connect() {
            setStatus('connecting');
            const protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
            ws = new WebSocket(protocol + '//' + location.host + '/ws/events');
            ws.onopen = function() { setStatus('connected'); };
            ws.onmessage = function(msg) {
                try { renderEvent(JSON.parse(msg.data)); } catch (err) { console.error(err); }
            };
            ws.onclose = function() {
                setStatus('disconnected');
                if (!reconnectTimer) {
                    reconnectTimer = setTimeout(function() { reconnectTimer = null; connect(); }, 3000);
                }
            };
            ws.onerror = function() { ws.close(); };
        }

        connect();
        draw();
    </script>
</body>
</html>`

// uiHandler serves the trace player at the root path only.
func uiHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(playerHTML))
}
