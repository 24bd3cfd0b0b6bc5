package browser

// agentJS is the script injected into the host page. It is deliberately
// thin UI glue: it forwards raw pointer/mutation/viewport events to the Go
// side over the __weekslotPost binding and exposes overlay, panel and toast
// primitives the Go side drives by Evaluate. All decisions (grid analysis,
// snapping, dedup) happen in Go.
const agentJS = `(() => {
  if (window.__weekslot) return;
  const post = (msg) => {
    try { window.__weekslotPost(JSON.stringify(msg)); } catch (e) {}
  };

  const ns = { _marker: '' };
  const overlays = new Map();
  let savedPointerEvents = new Map();

  // Capture layer: sits over the grid while selection mode is active and
  // owns all pointer events there.
  const layer = document.createElement('div');
  layer.style.cssText = 'position:fixed;left:0;top:0;width:100vw;height:100vh;' +
    'z-index:2147483600;display:none;cursor:crosshair;background:transparent;';

  const panel = document.createElement('div');
  panel.style.cssText = 'position:fixed;top:12px;right:12px;z-index:2147483646;' +
    'background:#fff;border:1px solid #ccc;border-radius:8px;padding:6px;' +
    'font:12px sans-serif;box-shadow:0 2px 8px rgba(0,0,0,.25);';
  const button = (label, cmd) => {
    const b = document.createElement('button');
    b.textContent = label;
    b.style.margin = '2px';
    b.addEventListener('click', (e) => {
      e.stopPropagation();
      post({ type: 'command', cmd: cmd });
    });
    return b;
  };
  panel.append(
    button('Select', 'toggle'),
    button('Copy', 'copy'),
    button('Export', 'export'),
    button('Clear', 'clear'));

  const toastEl = document.createElement('div');
  toastEl.style.cssText = 'position:fixed;bottom:24px;left:50%;transform:translateX(-50%);' +
    'z-index:2147483646;background:#333;color:#fff;border-radius:6px;padding:8px 14px;' +
    'font:13px sans-serif;display:none;';
  let toastTimer = 0;

  document.documentElement.append(layer, panel, toastEl);

  const forward = (kind) => (e) => {
    post({
      type: 'pointer',
      kind: kind,
      x: e.clientX,
      y: e.clientY,
      overPanel: panel.contains(e.target)
    });
    e.preventDefault();
  };
  layer.addEventListener('pointerdown', forward('down'));
  layer.addEventListener('pointermove', forward('move'));
  layer.addEventListener('pointerup', forward('up'));

  window.addEventListener('scroll', () => post({ type: 'viewport' }), true);
  window.addEventListener('resize', () => post({ type: 'viewport' }));

  // Structural mutations only: attribute churn on this kind of host page
  // is high-frequency noise.
  new MutationObserver(() => post({ type: 'mutation' }))
    .observe(document.documentElement, { childList: true, subtree: true });

  ns.collect = (markerAttr, hourSelector) => {
    ns._marker = markerAttr;
    const nodes = [];
    const seen = new Map();
    const push = (el, parent) => {
      const r = el.getBoundingClientRect();
      const attrs = {};
      for (const a of el.attributes) attrs[a.name] = a.value;
      const i = nodes.length;
      seen.set(el, i);
      nodes.push({
        index: i,
        parent: parent,
        marker: el.getAttribute(markerAttr) || '',
        ariaLabel: el.getAttribute('aria-label') || '',
        text: (el.innerText || '').slice(0, 200),
        attrs: attrs,
        rect: { left: r.left, top: r.top, width: r.width, height: r.height }
      });
      return i;
    };
    for (const el of document.querySelectorAll('[' + CSS.escape(markerAttr) + ']')) {
      const chain = [];
      let p = el.parentElement;
      for (let k = 0; k < 3 && p; k++) { chain.unshift(p); p = p.parentElement; }
      let parent = -1;
      for (const a of chain) parent = seen.has(a) ? seen.get(a) : push(a, parent);
      const me = seen.has(el) ? seen.get(el) : push(el, parent);
      for (const c of el.children) if (!seen.has(c)) push(c, me);
    }
    const hourMarks = [];
    if (hourSelector) {
      for (const h of document.querySelectorAll(hourSelector)) {
        const r = h.getBoundingClientRect();
        hourMarks.push({ left: r.left, top: r.top, width: r.width, height: r.height });
      }
    }
    return {
      scrollY: window.scrollY,
      viewportWidth: window.innerWidth,
      viewportHeight: window.innerHeight,
      nodes: nodes,
      hourMarks: hourMarks
    };
  };

  // Selection mode toggles the capture layer and neutralizes the host
  // columns' own pointer handling; the original values are saved and
  // restored as a pair so nothing leaks after teardown.
  ns.setActive = (on, markerAttr) => {
    layer.style.display = on ? 'block' : 'none';
    if (on) {
      savedPointerEvents = new Map();
      for (const el of document.querySelectorAll('[' + CSS.escape(markerAttr) + ']')) {
        savedPointerEvents.set(el, el.style.pointerEvents);
        el.style.pointerEvents = 'none';
      }
    } else {
      for (const [el, v] of savedPointerEvents) el.style.pointerEvents = v;
      savedPointerEvents = new Map();
    }
  };

  ns.positionGrid = (left, top, width, height) => {
    layer.style.left = left + 'px';
    layer.style.top = top + 'px';
    layer.style.width = width + 'px';
    layer.style.height = height + 'px';
  };

  ns.show = (id, left, top, width, height, temp) => {
    let d = overlays.get(id);
    if (!d) {
      d = document.createElement('div');
      d.style.position = 'fixed';
      d.style.pointerEvents = 'none';
      d.style.zIndex = temp ? '2147483610' : '2147483605';
      d.style.background = temp ? 'rgba(66,133,244,.25)' : 'rgba(52,168,83,.35)';
      d.style.border = temp ? '1px dashed rgba(66,133,244,.9)' : '1px solid rgba(52,168,83,.9)';
      d.style.borderRadius = '3px';
      overlays.set(id, d);
      document.documentElement.append(d);
    }
    d.style.left = left + 'px';
    d.style.top = top + 'px';
    d.style.width = width + 'px';
    d.style.height = height + 'px';
  };

  ns.remove = (id) => {
    const d = overlays.get(id);
    if (d) { d.remove(); overlays.delete(id); }
  };

  ns.toast = (msg) => {
    toastEl.textContent = msg;
    toastEl.style.display = 'block';
    clearTimeout(toastTimer);
    toastTimer = setTimeout(() => { toastEl.style.display = 'none'; }, 2500);
  };

  window.__weekslot = ns;
})();`
